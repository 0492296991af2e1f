package sys

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

var (
	// Style definitions
	debugColor    = color.New(color.FgHiBlack)
	infoColor     = color.New(color.FgHiBlack)
	warnColor     = color.New(color.FgHiYellow)
	errorColor    = color.New(color.FgHiRed)
	fatalColor    = color.New(color.FgHiRed, color.Bold)
	databaseColor = color.New(color.FgHiBlack)
	voiceColor    = color.New(color.FgHiMagenta)
	autoplayColor = color.New(color.FgHiCyan)

	IsSilent  = false
	LogToFile = false

	// Global default logger
	Logger *slog.Logger

	// Log file handling
	logFile *os.File
	logMu   sync.Mutex
)

func init() {
	// Initialize with a default handler immediately (Stdout only)
	InitLogger(false, false)
}

// InitLogger initializes the global structured logger
func InitLogger(silent bool, saveToFile bool) {
	logMu.Lock()
	defer logMu.Unlock()

	IsSilent = silent
	LogToFile = saveToFile
	level := slog.LevelInfo
	if strings.ToLower(os.Getenv("DEBUG")) == "true" {
		level = slog.LevelDebug
	}

	// Clean up previous file if it exists (e.g. during reload)
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writer io.Writer = os.Stdout
	var err error

	// Open log file if requested
	if LogToFile {
		// Determine log file name from executable name
		exePath, exeErr := os.Executable()
		logName := "autoplaylist.log" // Fallback
		if exeErr == nil {
			logName = filepath.Base(exePath) + ".log"
		}

		// Open log file
		logFile, err = os.OpenFile(logName, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open %s: %v\n", logName, err)
		} else {
			writer = io.MultiWriter(os.Stdout, logFile)
		}
	}

	// Force colors to be enabled even if writing to a file/pipe avoids detection
	color.NoColor = false

	handler := NewBotLogHandler(writer, &BotLogHandlerOptions{
		Silent: IsSilent,
		Level:  level,
	})
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

func SetSilentMode(silent bool) {
	InitLogger(silent, LogToFile)
}

// --- Log Functions ---

func LogDebug(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...))
}

func LogInfo(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...))
}

func LogWarn(format string, v ...any) {
	slog.Warn(fmt.Sprintf(format, v...))
}

func LogError(format string, v ...any) {
	slog.Error(fmt.Sprintf(format, v...))
}

// LogFatal logs at fatal level then panics with the message, so deferred
// cleanup (PID file, database) still runs before the process dies.
func LogFatal(format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	slog.Log(context.Background(), slog.LevelError+4, msg) // Custom Fatal level
	panic(msg)
}

func LogDatabase(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "database"))
}

func LogVoice(format string, v ...any) {
	slog.Info(fmt.Sprintf(format, v...), slog.String("component", "voice"))
}

// LogAutoplay logs at debug level: a skipped autoplay opportunity is an
// expected steady state, diagnostic only.
func LogAutoplay(format string, v ...any) {
	slog.Debug(fmt.Sprintf(format, v...), slog.String("component", "autoplay"))
}

// --- Custom Slog Handler ---

type BotLogHandlerOptions struct {
	Silent bool
	Level  slog.Leveler
}

type BotLogHandler struct {
	w    io.Writer
	opts *BotLogHandlerOptions
	mu   *sync.Mutex
}

func NewBotLogHandler(w io.Writer, opts *BotLogHandlerOptions) *BotLogHandler {
	if opts == nil {
		opts = &BotLogHandlerOptions{Level: slog.LevelInfo}
	}
	return &BotLogHandler{
		w:    w,
		opts: opts,
		mu:   &sync.Mutex{},
	}
}

func (h *BotLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.opts.Silent {
		return false
	}
	return level >= h.opts.Level.Level()
}

func (h *BotLogHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.opts.Silent {
		return nil
	}

	timeStr := time.Now().Format("15:04:05")
	var levelStr string
	var levelColor *color.Color

	switch {
	case r.Level >= slog.LevelError+4: // Fatal
		levelStr = "FATAL"
		levelColor = fatalColor
	case r.Level >= slog.LevelError:
		levelStr = "ERROR"
		levelColor = errorColor
	case r.Level >= slog.LevelWarn:
		levelStr = "WARN"
		levelColor = warnColor
	case r.Level >= slog.LevelInfo:
		levelStr = "INFO"
		levelColor = infoColor
	default:
		levelStr = "DEBUG"
		levelColor = debugColor
	}

	// Extract component if present
	component := ""
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "component" {
			component = strings.ToUpper(a.Value.String())
			return false
		}
		return true
	})

	// Output: 15:04:05 [INFO] [COMPONENT] Message
	// Timestamp is always printed in default color.
	fmt.Fprintf(h.w, "%s", timeStr)

	if component != "" {
		// Component-specific logs: Level tag (if not INFO) is isolated, Message bleeds component color
		if levelStr != "INFO" {
			fmt.Fprintf(h.w, " %s", levelColor.Sprintf("[%s]", levelStr))
		}
		compColor := getComponentColor(component)
		fmt.Fprintf(h.w, " %s\n", compColor.Sprintf("[%s] %s", component, r.Message))
	} else {
		// General logs: Level tag color bleeds into the message
		fmt.Fprintf(h.w, " %s\n", levelColor.Sprintf("[%s] %s", levelStr, r.Message))
	}

	return nil
}

func (h *BotLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *BotLogHandler) WithGroup(name string) slog.Handler       { return h }

func getComponentColor(name string) *color.Color {
	switch name {
	case "DATABASE":
		return databaseColor
	case "VOICE":
		return voiceColor
	case "AUTOPLAY":
		return autoplayColor
	default:
		return color.New(color.FgCyan)
	}
}

// @config
const (
	MsgConfigFailedToLoad = "Failed to load config: %v"
	MsgConfigMissingToken = "DISCORD_TOKEN is not set in .env file"
)

// @database
const (
	MsgDatabaseInitSuccess = "Database initialized successfully"
	MsgDatabaseTableError  = "Failed to create table: %w"
	MsgDatabasePragmaError = "Failed to set pragma %s: %w"
	MsgDatabaseQueryError  = "Query failed: %v"
)

// @bot lifecycle
const (
	MsgBotStarting      = "Starting %s..."
	MsgBotReady         = "%s is ready! (ID: %s) (%dms)"
	MsgBotShutdown      = "Shutting down %s..."
	MsgBotKillingOld    = "Killing running instance... (PID: %d)"
	MsgBotOldTerminated = "Old instance terminated."
	MsgGenericError     = "%v"
	MsgDaemonStarting   = "Starting..."
)

// @autoplay
const (
	MsgAutoplayModeOn         = "Autoplay mode ON."
	MsgAutoplayNotEligible    = "Not eligible for autoplay: %s, exiting..."
	MsgAutoplayScheduled      = "Eligible, re-checking playback in %v..."
	MsgAutoplaySettledPlaying = "A track is playing, exiting..."
	MsgAutoplayChecking       = "Checking for an autoplay opportunity..."
	MsgAutoplayDisengaged     = "Autoplay mode is disengaged, exiting..."
	MsgAutoplayNoPlaylist     = "No %s playlist found, nothing to play."
	MsgAutoplayEmptyPlaylist  = "No tracks in the %s playlist, nothing to play."
	MsgAutoplaySelected       = "Track selected: %s"
	MsgAutoplayPlayFailed     = "Failed to start playback: %v"
	MsgAutoplayTrackStarted   = "Track started (%s): %s"
	MsgAutoplaySetVolume      = "Setting volume to %d%%"
)

// @voice
const (
	MsgVoiceJoinFailed      = "Failed to join voice channel %s: %v"
	MsgVoiceResolveFailed   = "Failed to resolve stream for %s: %v"
	MsgVoiceTranscodeFailed = "Transcoder finished for: %s (Err: %v)"
	MsgVoicePlaybackDone    = "Playback finished: %s"
	MsgVoicePlaybackStopped = "Playback stopped: %s"
	MsgVoiceSkippingTrack   = "Skipping track due to error: %v"
	MsgVoiceNowStreaming    = "Now streaming: %s"
)

// @command (user-facing)
const (
	MsgCmdEngagedBackground = "Autoplay mode engaged in background."
	MsgCmdEngagedAlone      = "Autoplay mode engaged but since no one is listening, no track will start now."
	MsgCmdDisengaged        = "Disengaging autoplay mode. Use the command %sautoplay to start it again later."
	MsgCmdNotReady          = "Voice playback is not ready yet."
	MsgCmdPlaylistUsage     = "Usage: %splaylist <name> [shuffle]"
	MsgCmdPlaylistNotFound  = "No playlist named %q exists."
	MsgCmdPlaylistEmpty     = "The playlist %q has no tracks."
	MsgCmdShuffleUsage      = "Usage: %sshuffle <on|off>"
)
