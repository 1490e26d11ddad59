// Package logger provides a structured logging facility based on Zap.
//
// New builds a logger from Config: the level is parsed with zapcore and the
// format selects the json (production) or console (development) encoder.
//
// # Context Awareness
//
// WithRayID extracts the RayID stored by the rayid middleware from a Fiber
// context and attaches it to the log entry. WithRun tags entries with the
// diff run and root entity so a whole reconciliation can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&cfg.Log)
//	log.Info("Server started")
//
//	l := logger.WithRayID(log, c)
//	l.Error("Diff failed", zap.Error(err))
package logger
