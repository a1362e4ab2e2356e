// Package extension provides the Forge extension for mounting Tandem.
//
// The extension integrates Tandem into the Forge application framework by:
//   - Initializing the pipeline with a configured store
//   - Running database migrations on registration
//   - Mounting the admin API routes with OpenAPI metadata; webhook
//     ingestion is served by the Handler method, which needs the raw
//     request body for signature verification
//   - Providing health checks via store.Ping
//
// Usage:
//
//	app := forge.New(
//	    forge.WithExtensions(
//	        extension.New(
//	            extension.WithStore(postgresStore),
//	            extension.WithPrefix("/tandem"),
//	        ),
//	    ),
//	)
//	app.Run()
package extension
