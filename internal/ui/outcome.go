package ui

import (
	"github.com/rs/zerolog"

	"github.com/dvloznov/finance-client/internal/domain"
)

// envelopeOrAlert reduces a transport outcome to a successful envelope. On
// any failure it logs, shows the error through alert and returns nil.
func envelopeOrAlert(log zerolog.Logger, alert func(string), op string, err error, body []byte) *domain.Envelope {
	if err != nil {
		log.Warn().Err(err).Str("op", op).Msg("Request failed")
		alert(err.Error())
		return nil
	}
	env, err := domain.ParseEnvelope(body)
	if err != nil {
		log.Warn().Err(err).Str("op", op).Msg("Malformed response")
		alert(err.Error())
		return nil
	}
	if !env.Success {
		log.Info().Str("op", op).Str("error", env.ErrorMessage()).Msg("Request refused")
		alert(env.Err().Error())
		return nil
	}
	return env
}
