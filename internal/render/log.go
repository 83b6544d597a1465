package render

import "log/slog"

// LevelTrace is below Debug and carries one record per draw command.
const LevelTrace = slog.LevelDebug - 4
