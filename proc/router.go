package proc

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/disgoorg/disgo/bot"
	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/events"
	"github.com/disgoorg/snowflake/v2"

	"github.com/rtrindade/autoplaylist/autoplay"
	"github.com/rtrindade/autoplaylist/sys"
)

var (
	engineMu sync.RWMutex
	engine   *autoplay.Engine
	library  *Library
)

// GetEngine returns the autoplay engine, nil until the client is ready.
func GetEngine() *autoplay.Engine {
	engineMu.RLock()
	defer engineMu.RUnlock()
	return engine
}

// GetLibrary returns the track catalog, nil until the client is ready.
func GetLibrary() *Library {
	engineMu.RLock()
	defer engineMu.RUnlock()
	return library
}

func setEngine(e *autoplay.Engine, l *Library) {
	engineMu.Lock()
	engine = e
	library = l
	engineMu.Unlock()
}

func init() {
	sys.OnClientReady(bootVoice)
	sys.RegisterMessageHandler(onChatMessage)
	sys.RegisterVoiceStateUpdateHandler(onListenerMoved)
}

// bootVoice joins the configured voice channel, builds the engine on top of
// the session and the sqlite library, and runs the initial eligibility pass.
func bootVoice(ctx context.Context, client bot.Client) {
	cfg := sys.GlobalConfig

	guildID, err := snowflake.Parse(cfg.GuildID)
	if err != nil {
		sys.LogWarn("GUILD_ID not set; voice playback disabled")
		return
	}
	channelID, err := snowflake.Parse(cfg.VoiceChannelID)
	if err != nil {
		sys.LogWarn("VOICE_CHANNEL_ID not set; voice playback disabled")
		return
	}

	vm := GetVoiceManager()
	sess := vm.Prepare(client, guildID, channelID)
	if err := vm.Join(ctx, client); err != nil {
		sys.LogError(sys.MsgVoiceJoinFailed, channelID, err)
		return
	}

	lib := NewLibrary(sys.DB, sess)
	eng := autoplay.NewEngine(sess, lib, autoplay.Config{
		InitialEngaged: cfg.InitialEngaged,
		Volume: autoplay.VolumeConfig{
			Catalog:  cfg.CatalogVolume,
			External: cfg.ExternalVolume,
		},
		SettleInterval: cfg.AutoplayDelay,
	})

	sess.SetTrackCallbacks(
		func(t *Track) {
			eng.OnTrackStarted(t)
		},
		func(t *Track) {
			eng.CheckIfEligible()
		},
	)

	sys.RegisterDaemon(sys.LogVoice, func(ctx context.Context) (bool, func(), func()) {
		return true, func() {}, func() {
			vm.Shutdown(context.Background())
		}
	})

	setEngine(eng, lib)
	eng.OnLoad()
}

// onChatMessage watches for the stop phrase. Both the plain form and the
// doubled-prefix escape disengage autoplay; the command dispatcher never
// sees either because "stop" is not a registered command.
func onChatMessage(event *events.MessageCreate) {
	eng := GetEngine()
	if eng == nil {
		return
	}

	prefix := "!"
	if sys.GlobalConfig != nil {
		prefix = sys.GlobalConfig.CommandPrefix
	}

	if !isStopPhrase(event.Message.Content, prefix) {
		return
	}

	client := *event.Client()
	stopPlayback(eng, GetVoiceManager().Session(), prefix, func(content string) {
		_, err := client.Rest.CreateMessage(event.ChannelID,
			discord.NewMessageCreateBuilder().SetContent(content).Build())
		if err != nil {
			sys.LogError(sys.MsgGenericError, err)
		}
	})
}

// isStopPhrase matches the plain stop phrase and its doubled-prefix escape.
func isStopPhrase(content, prefix string) bool {
	text := strings.TrimSpace(content)
	return text == prefix+"stop" || text == prefix+prefix+"stop"
}

// stopPlayback halts the session, disengages autoplay and acknowledges the
// phrase. The acknowledgment goes out even when autoplay was already off so
// the phrase always gets visible feedback.
func stopPlayback(eng *autoplay.Engine, sess *VoiceSession, prefix string, reply func(string)) {
	if sess != nil {
		sess.Stop()
	}
	eng.SetEngaged(false)
	reply(fmt.Sprintf(sys.MsgCmdDisengaged, prefix))
}

// onListenerMoved re-runs the eligibility check whenever anyone joins,
// leaves or moves between voice channels in the bot's guild.
func onListenerMoved(event *events.GuildVoiceStateUpdate) {
	eng := GetEngine()
	if eng == nil {
		return
	}
	sess := GetVoiceManager().Session()
	if sess == nil || event.VoiceState.GuildID != sess.GuildID {
		return
	}
	eng.CheckIfEligible()
}
