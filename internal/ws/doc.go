// Package ws implements the WebSocket push channel for pskrmon.
//
// Hub keeps a set of connected clients and sends each of them the session's
// current snapshot on connect and then on every tick.
//
// Message format sent to clients:
//
//	{
//	  "event": "snapshot",
//	  "data":  { /* same schema as GET /api/v1/snapshot */ }
//	}
//
// The upgrader accepts all origins; restrict them at the reverse proxy.
// The hub is mounted at /ws by the API router.
package ws
