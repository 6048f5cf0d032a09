/*
Package log provides structured logging for Strata using zerolog.

Strata uses zerolog for low-overhead structured logging, either as JSON
(production) or a colorized console writer (local development). A single
global Logger is configured once via Init and child loggers are derived
from it with the With* helpers, attaching fields relevant to the part of
the system doing the logging rather than repeating Str calls everywhere.

# Usage

Initializing at startup:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
	})

Deriving scoped loggers:

	storeLog := log.WithComponent("store").With().Str("collection", "notes").Logger()
	storeLog.Info().Str("doc_id", id).Msg("document inserted")

	syncLog := log.WithPeer("https://peer.example.com")
	syncLog.Warn().Err(err).Msg("pull failed")

The package-level helpers (Info, Debug, Warn, Error, Errorf, Fatal) log
against the global Logger directly and are meant for startup/shutdown
messages in cmd/strata rather than hot paths, which should hold a scoped
child logger instead.

# Fields

Conventional field names used across the codebase: component (which
package emitted the line), collection (which store collection), doc_id,
peer (a sync client's remote base URL), bucket_index (a bucket index),
and hlc_physical/hlc_logical/hlc_nonce (the parts of an HLC timestamp).
*/
package log
