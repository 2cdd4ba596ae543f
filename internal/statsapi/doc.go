// Package statsapi serves interface statistics to the dashboard.
//
// The /stats/ endpoints answer visualization queries with data source wire
// protocol responses, echoing the request's reqId. The remaining endpoints
// expose the same values as plain JSON.
package statsapi
