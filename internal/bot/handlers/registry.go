package handlers

import (
	tgbot "github.com/go-telegram/bot"
)

// RegisteredHandler represents a handler with its registration details and
// middleware. It encapsulates all information needed to register a command
// or callback with the bot.
type RegisteredHandler struct {
	HandlerType tgbot.HandlerType
	Pattern     string
	Handler     tgbot.HandlerFunc
	Middleware  []tgbot.Middleware
	MatchType   tgbot.MatchType
}

// RegisterAllCommands initializes and returns a map of all bot commands and
// callback handlers. The free-text reminder handler is registered separately
// as the bot's default handler.
func RegisterAllCommands(deps HandlerDeps) map[string]RegisteredHandler {
	handlers := make(map[string]RegisteredHandler)

	handlers["/start"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "start",
		Handler:     NewStartHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/list"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "list",
		Handler:     NewListHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}
	handlers["/delete"] = RegisteredHandler{
		HandlerType: tgbot.HandlerTypeMessageText,
		Pattern:     "delete",
		Handler:     NewDeleteHandler(deps),
		MatchType:   tgbot.MatchTypeCommandStartOnly,
	}

	callbackHandler := NewCallbackHandler(deps)
	for _, prefix := range []string{CallbackAckPrefix, CallbackConfirmYesPrefix, CallbackConfirmNoPrefix} {
		handlers["callback:"+prefix] = RegisteredHandler{
			HandlerType: tgbot.HandlerTypeCallbackQueryData,
			Pattern:     prefix,
			Handler:     callbackHandler,
			MatchType:   tgbot.MatchTypePrefix,
		}
	}

	return handlers
}
