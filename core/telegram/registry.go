package telegram

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/qemplois/assistant/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Command is a slash command exposed by the bot.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	// Hidden commands work but are left out of the Telegram menu.
	Hidden  bool
	Aliases []string
}

// Registry maps command names (with their leading slash) and aliases to
// commands, plus a handler for text that is not a command.
type Registry struct {
	commands     map[string]Command
	aliases      map[string]string
	textFallback tele.HandlerFunc
}

func NewRegistry() *Registry {
	return &Registry{commands: map[string]Command{}, aliases: map[string]string{}}
}

// canonicalCommand lowercases the first word of text, strips a @botname
// suffix and ensures the leading slash.
func canonicalCommand(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	return "/" + strings.TrimPrefix(name, "/")
}

// RegisterCommand adds cmd under name, which must start with a slash. It
// reports false and logs the reason when the command is rejected.
func (r *Registry) RegisterCommand(name string, cmd Command) bool {
	reason := ""
	switch {
	case cmd.Handler == nil || cmd.Description == "" || name == "":
		reason = "invalid"
	case !strings.HasPrefix(name, "/"):
		reason = "no_slash_prefix"
	case r.has(name):
		reason = "duplicate"
	}
	if reason != "" {
		logger.Warn(context.Background(), "tg.wire", "register.command.skip",
			slog.String("handler", name),
			slog.String("reason", reason),
		)
		return false
	}
	r.commands[name] = cmd
	for _, a := range cmd.Aliases {
		if a = canonicalCommand(a); a != "/" && !r.has(a) {
			r.aliases[a] = name
		}
	}
	return true
}

func (r *Registry) has(name string) bool {
	_, cmd := r.commands[name]
	_, alias := r.aliases[name]
	return cmd || alias
}

// ListCommands returns the commands sorted by name. visibleOnly drops hidden
// and admin-only ones, which is what the Telegram menu shows.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for name, cmd := range r.commands {
		if visibleOnly && (cmd.Hidden || cmd.AdminOnly) {
			continue
		}
		list = append(list, tele.Command{Text: strings.TrimPrefix(name, "/"), Description: cmd.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return cmp.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves message text to a registered command. Arguments,
// letter case and a @botname suffix are ignored. The returned key is the
// registered name even when text used an alias.
func (r *Registry) LookupCommand(text string) (string, Command, bool) {
	name := canonicalCommand(text)
	if target, ok := r.aliases[name]; ok {
		name = target
	}
	cmd, ok := r.commands[name]
	if !ok {
		return "", Command{}, false
	}
	return name, cmd, true
}

// Commands exposes the registered commands keyed by name.
func (r *Registry) Commands() map[string]Command { return r.commands }

func (r *Registry) SetTextFallback(h tele.HandlerFunc) { r.textFallback = h }

func (r *Registry) TextFallback() tele.HandlerFunc { return r.textFallback }

// InitBotCommands publishes the visible commands as the bot menu. Failure is
// logged; the bot works without a menu.
func InitBotCommands(bot *tele.Bot, reg *Registry) {
	menu := reg.ListCommands(true)
	if err := bot.SetCommands(menu); err != nil {
		logger.Error(context.Background(), "tg.wire", "register.commands.set",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return
	}
	logger.Debug(context.Background(), "tg.wire", "register.commands.set",
		slog.String("status", "ok"),
		slog.Int("commands", len(menu)),
	)
}
