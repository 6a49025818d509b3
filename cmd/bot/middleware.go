package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vixenbot/vixen/pkg/logging"
	"github.com/vixenbot/vixen/pkg/request"
	"github.com/vixenbot/vixen/pkg/ticketing"
)

// interactionProcessor handles one button press or modal submission.
type interactionProcessor func(a IApp, i *discordgo.InteractionCreate) error

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, a IApp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
			}
		}()

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				a.Log().Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path // If the route does not define a path, use the URL path.
			}
		} else {
			path = r.URL.Path // If the route is nil, use the URL path.
		}

		defer func() {
			// Run the deferred function after the request has been handled, as the status code will not be available until then.
			HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		handler(cw, r)
	}
}

// interactionHandler dispatches component presses and modal submissions to
// their processors. Errors and panics stop here: they are logged and turned
// into an ephemeral reply so the gateway handler never crashes.
func interactionHandler(a IApp, buttons, modals map[string]interactionProcessor) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		var (
			customID   string
			processors map[string]interactionProcessor
		)

		switch i.Type {
		case discordgo.InteractionMessageComponent:
			customID = i.MessageComponentData().CustomID
			processors = buttons
		case discordgo.InteractionModalSubmit:
			customID = i.ModalSubmitData().CustomID
			processors = modals
		default:
			return
		}

		base, _ := ticketing.SplitCustomID(customID)
		processor, ok := processors[base]
		if !ok {
			return
		}

		a.Log().Debug("Handling interaction", slog.String("custom_id", customID))
		t := prometheus.NewTimer(InteractionDuration.WithLabelValues(base))
		defer t.ObserveDuration()

		// Nothing that happens in a processor is allowed to take the
		// process down.
		defer func() {
			if rec := recover(); rec != nil {
				a.Log().Error("Panic in interaction processor",
					slog.String("custom_id", customID),
					slog.String(logging.KeyError, fmt.Sprintf("%v", rec)),
					slog.String("stack", string(debug.Stack())),
				)
				if err := respondEphemeral(a, i, genericErrorMessage); err != nil {
					a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		if err := processor(a, i); err != nil {
			a.Log().Error(fmt.Sprintf("Error processing interaction %s", customID),
				slog.String(logging.KeyError, err.Error()))

			if err := respondEphemeral(a, i, userFacingMessage(err)); err != nil {
				a.Log().Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
			}
		}
	}
}

// genericErrorMessage is shown when the failure has no user-facing shape.
const genericErrorMessage = "Something went wrong while processing your request. Please try again later."

// userFacingMessage maps core errors to the rejection text shown to the
// actor. Anything untyped stays generic.
func userFacingMessage(err error) string {
	var (
		valErr  *ticketing.ValidationError
		permErr *ticketing.PermissionError
		confErr *ticketing.ConflictError
	)
	switch {
	case errors.As(err, &valErr):
		return valErr.Error()
	case errors.As(err, &permErr):
		return permErr.Error()
	case errors.As(err, &confErr):
		return confErr.Error()
	default:
		return genericErrorMessage
	}
}

// deferEphemeral acknowledges an interaction whose processing may outlive
// the acknowledgement window. The eventual reply goes out as a followup.
func deferEphemeral(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// respondEphemeral replies to an interaction. If the interaction was already
// acknowledged the reply is sent as a followup instead.
func respondEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	err := a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err == nil {
		return nil
	}

	if _, followupErr := a.Session().FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	}); followupErr != nil {
		return errors.Join(err, followupErr)
	}
	return nil
}
