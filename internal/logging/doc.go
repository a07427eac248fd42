// Package logging provides structured logging for teamctl.
//
// It wraps Go's log/slog with a JSON handler so every command leaves a
// filterable trail in the state directory without polluting the
// human-readable output on stdout.
//
// # Basic Usage
//
//	logger, err := logging.NewLoggerWithRotation(logDir, "INFO", logging.DefaultRotationConfig())
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("team resolved", "team", "backend", "members", 2)
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	teamLog := logger.WithTeam("backend")
//	leadLog := teamLog.WithAgent("EMP_0001").WithAssignment(id)
//	leadLog.Info("briefing delivered", "bytes", len(msg))
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"briefing delivered","team":"backend","agent":"EMP_0001","assignment_id":"...","bytes":4096}
//
// # Rotation
//
// [RotatingWriter] renames debug.log to debug.log.1 (shifting older backups)
// once a write would exceed MaxSizeMB, optionally gzipping the backup.
//
// # Reading Logs
//
// [ReadLogs], [FilterLogs], [WriteText] and [WriteJSON] back the
// "teamctl logs" command.
//
// # Thread Safety
//
// All types in this package are safe for concurrent use.
package logging
