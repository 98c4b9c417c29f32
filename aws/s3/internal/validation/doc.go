// Package validation checks bucket names and object keys before a request
// is built. Keys written by a run are held to stricter rules than keys that
// were only listed, so that stray objects can still be deleted.
package validation
