package sys

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/disgoorg/disgo"
	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/cache"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/disgo/gateway"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/voice"
	"github.com/disgoorg/godave/golibdave"
	"github.com/disgoorg/snowflake/v2"
)

var AppContext context.Context
var daemonsOnce sync.Once
var StartupTime = time.Now()

func SetAppContext(ctx context.Context) {
	AppContext = ctx
}

// --- Chat Command Registry ---

// CommandContext is handed to a command's permission predicate and exec
// callback.
type CommandContext struct {
	Client    bot.Client
	Message   discord.Message
	GuildID   snowflake.ID
	ChannelID snowflake.ID
	Args      []string
	// Reply sends a plain text message to the invoking channel.
	Reply func(content string)
	// React adds an emoji reaction to the invoking message.
	React func(emoji string)
}

// Command is a prefix chat command. The bot listens for raw messages rather
// than slash commands because the stop phrase and its doubled-prefix escape
// need the literal message text.
type Command struct {
	Name       string
	Alias      string
	Help       string
	Permission func(ctx *CommandContext) bool
	Exec       func(ctx *CommandContext)
}

var commands []*Command
var commandIndex = map[string]*Command{}
var messageHandlers []func(event *events.MessageCreate)
var voiceStateUpdateHandlers []func(event *events.GuildVoiceStateUpdate)
var onClientReadyCallbacks []func(ctx context.Context, client bot.Client)

func RegisterCommand(cmd *Command) {
	commands = append(commands, cmd)
	commandIndex[cmd.Name] = cmd
	if cmd.Alias != "" {
		commandIndex[cmd.Alias] = cmd
	}
}

// Commands returns the registered commands in registration order.
func Commands() []*Command {
	return commands
}

// RegisterMessageHandler adds a raw message hook. Hooks run before command
// dispatch on every guild message, bot authors excluded.
func RegisterMessageHandler(handler func(event *events.MessageCreate)) {
	messageHandlers = append(messageHandlers, handler)
}

func RegisterVoiceStateUpdateHandler(handler func(event *events.GuildVoiceStateUpdate)) {
	voiceStateUpdateHandlers = append(voiceStateUpdateHandlers, handler)
}

func OnClientReady(cb func(ctx context.Context, client bot.Client)) {
	onClientReadyCallbacks = append(onClientReadyCallbacks, cb)
}

func CreateClient(ctx context.Context, cfg *Config) (bot.Client, error) {
	client, err := disgo.New(cfg.Token,
		bot.WithGatewayConfigOpts(
			gateway.WithIntents(
				gateway.IntentGuilds,
				gateway.IntentGuildMessages,
				gateway.IntentGuildMembers,
				gateway.IntentMessageContent,
				gateway.IntentGuildMessageReactions,
				gateway.IntentGuildVoiceStates,
			),
			gateway.WithPresenceOpts(
				gateway.WithListeningActivity("the Autoplaylist"),
				gateway.WithOnlineStatus(discord.OnlineStatusOnline),
			),
		),
		bot.WithCacheConfigOpts(
			cache.WithCaches(cache.FlagGuilds, cache.FlagMembers, cache.FlagRoles, cache.FlagChannels, cache.FlagVoiceStates),
		),
		bot.WithVoiceManagerConfigOpts(
			voice.WithDaveSessionCreateFunc(golibdave.NewSession),
		),
		bot.WithEventListenerFunc(onMessageCreate),
		bot.WithEventListenerFunc(onVoiceStateUpdate),
		bot.WithEventListenerFunc(onReady),
		bot.WithRestClientConfigOpts(
			rest.WithHTTPClient(&http.Client{
				Timeout: 60 * time.Second,
			}),
		),
	)
	if err != nil {
		return bot.Client{}, err
	}

	return *client, nil
}

func onReady(event *events.Ready) {
	client := *event.Client()

	duration := time.Since(StartupTime)
	LogInfo(MsgBotReady, event.User.Username, event.User.ID.String(), duration.Milliseconds())

	TriggerClientReady(AppContext, client)
	StartDaemons(AppContext)
}

func TriggerClientReady(ctx context.Context, client bot.Client) {
	for _, cb := range onClientReadyCallbacks {
		cb(ctx, client)
	}
}

func onMessageCreate(event *events.MessageCreate) {
	if event.Message.Author.Bot || event.GuildID == nil {
		return
	}

	for _, h := range messageHandlers {
		safeGo(func() { h(event) })
	}

	dispatchCommand(event)
}

// dispatchCommand parses "<prefix><name> [args...]" and runs the matching
// command. Unknown names and failed permission checks are silently ignored.
func dispatchCommand(event *events.MessageCreate) {
	prefix := "!"
	if GlobalConfig != nil {
		prefix = GlobalConfig.CommandPrefix
	}

	content := strings.TrimSpace(event.Message.Content)
	if !strings.HasPrefix(content, prefix) || strings.HasPrefix(content, prefix+prefix) {
		return
	}

	fields := strings.Fields(content[len(prefix):])
	if len(fields) == 0 {
		return
	}

	cmd, ok := commandIndex[strings.ToLower(fields[0])]
	if !ok {
		return
	}

	client := *event.Client()
	ctx := &CommandContext{
		Client:    client,
		Message:   event.Message,
		GuildID:   *event.GuildID,
		ChannelID: event.ChannelID,
		Args:      fields[1:],
		Reply: func(content string) {
			_, err := client.Rest.CreateMessage(event.ChannelID, discord.NewMessageCreateBuilder().SetContent(content).Build())
			if err != nil {
				LogError("Failed to send reply: %v", err)
			}
		},
		React: func(emoji string) {
			if err := client.Rest.AddReaction(event.ChannelID, event.MessageID, emoji); err != nil {
				LogError("Failed to add reaction: %v", err)
			}
		},
	}

	if cmd.Permission != nil && !cmd.Permission(ctx) {
		return
	}

	safeGo(func() { cmd.Exec(ctx) })
}

func onVoiceStateUpdate(event *events.GuildVoiceStateUpdate) {
	for _, h := range voiceStateUpdateHandlers {
		safeGo(func() { h(event) })
	}
}

// --- Daemon Registry ---

type daemonEntry struct {
	starter func(ctx context.Context) (bool, func(), func())
	logger  func(format string, v ...any)
}

var registeredDaemons []daemonEntry
var activeShutdownHooks []func()
var activeShutdownMu sync.Mutex

// RegisterDaemon registers a background daemon. The starter decides whether
// the daemon is active and returns its run loop and shutdown hook.
func RegisterDaemon(logger func(format string, v ...any), starter func(ctx context.Context) (bool, func(), func())) {
	registeredDaemons = append(registeredDaemons, daemonEntry{starter: starter, logger: logger})
}

func StartDaemons(ctx context.Context) {
	daemonsOnce.Do(func() {
		type activeDaemon struct {
			entry daemonEntry
			run   func()
		}
		var active []activeDaemon

		for _, daemon := range registeredDaemons {
			if ok, run, shutdown := daemon.starter(ctx); ok && run != nil {
				if shutdown != nil {
					activeShutdownMu.Lock()
					activeShutdownHooks = append(activeShutdownHooks, shutdown)
					activeShutdownMu.Unlock()
				}
				active = append(active, activeDaemon{daemon, run})
			}
		}

		for _, ad := range active {
			ad.entry.logger(MsgDaemonStarting)
		}

		for _, ad := range active {
			safeGo(ad.run)
		}
	})
}

func ShutdownDaemons(ctx context.Context) {
	activeShutdownMu.Lock()
	defer activeShutdownMu.Unlock()

	var wg sync.WaitGroup
	for _, shutdown := range activeShutdownHooks {
		if shutdown != nil {
			wg.Add(1)
			s := shutdown
			safeGo(func() {
				defer wg.Done()
				s()
			})
		}
	}
	wg.Wait()
}

// safeGo runs f on a new goroutine and turns panics into error logs.
func safeGo(f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				LogError("Panic recovered in handler: %v", r)
			}
		}()
		f()
	}()
}
