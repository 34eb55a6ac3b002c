// Package fanout provides the outbound webhook subsystem for Fairlx: webhook
// registrations scoped to projects, event fan-out with HMAC-SHA256 signing,
// an in-memory retry queue with exponential backoff, and an append-only
// delivery log.
//
// Fanout is a library, not a service. Import it into the application, give it
// a store, and call Dispatch after each domain mutation:
//
//	d, err := fanout.New(
//	    fanout.WithStore(memoryStore),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d.Start(ctx)
//	defer d.Stop()
//
//	d.Dispatch(ctx, "proj_42", event.TaskCreated, event.Fragment{
//	    WorkItemID: "wi_01h...",
//	    Key:        "FLX-101",
//	    Title:      "Fix login redirect",
//	    Actor:      &event.Actor{Name: "ada"},
//	})
//
// Delivery is best-effort: Dispatch never returns an error, failed recipients
// never affect the others, and transient failures are retried on a timer.
// Deliveries that exhaust their retry budget land in the dead letter log,
// where operators can inspect and replay them.
package fanout
