// Package ariumclient provides the primary entry point for constructing an
// asset platform client that implements the arium.Client interface.
//
// It layers configuration validation, HTTP transport, authentication and
// workflow event publishing on top of the interfaces and types defined in the
// arium package.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/arium-client/pkg/arium"
//	  "github.com/fivetwenty-io/arium-client/pkg/ariumclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  cli, err := ariumclient.New(ctx, &arium.Config{
//	    APIEndpoint: "https://api.example.com",
//	    Tenant:      "workspace1",
//	    AccessToken: "eyJhbGciOi...",
//	  })
//	  if err != nil { log.Fatal(err) }
//	  defer cli.Close()
//
//	  portfolios, err := cli.Portfolios().List(ctx, nil)
//	  if err != nil { log.Fatal(err) }
//	  _ = portfolios
//	}
//
// # Uploads and polling
//
// Creating an asset may return a presigned upload reference. The client
// uploads the payload there and polls the asset until the platform has
// processed it, unless CreateOptions.NoWait is set. Polling stops when the
// context is done or Config.PollTimeout elapses.
//
// # Workflow events
//
// When Config.EventsURL points at a NATS server, every finished upload,
// import, copy and calculation poll is published to the
// "arium.workflows.<kind>" subject. Close releases that connection.
package ariumclient
