// Package sse streams topic-tagged payloads to HTTP clients as
// Server-Sent Events.
//
// Each client subscribes with a glob filter (path.Match syntax) and
// receives every broadcast whose topic matches it. Broadcast never blocks:
// a slow client loses messages instead of stalling the publisher.
//
//	comp := sse.NewComponent("/debug/events/stream", log)
//	registry.Register(comp)
//	router.GET("/debug/events/stream", func(c *gin.Context) {
//	    sse.ServeSSE(comp.Hub(), c.Writer, c.Request, uuid.NewString(), c.DefaultQuery("component", "*"))
//	})
//	comp.Hub().Broadcast("capture", payload)
package sse
