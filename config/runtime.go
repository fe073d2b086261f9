package config

import (
	"sync"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Runtime defaults, matching the values the operators tuned the original
// deployment to.
const (
	defaultRate               = "3.25"
	defaultBandwidthThreshold = 280
	defaultFlatFee            = "0.2714"
)

// Runtime exposes the live-tunable dispatch parameters: the ledger-to-
// settlement exchange rate, the bandwidth threshold for fee-free transfers
// and the flat fee. The backing document is re-read on every query, so an
// operator edit takes effect on the next conversion without a restart.
// Invalid or missing values fall back to the last good ones with a warning.
type Runtime struct {
	mu   sync.Mutex
	v    *viper.Viper
	path string
	log  zerolog.Logger

	rate      decimal.Decimal
	threshold int64
	fee       decimal.Decimal
}

// NewRuntime creates a Runtime over the given JSON document path.
func NewRuntime(path string, log zerolog.Logger) *Runtime {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	r := &Runtime{
		v:         v,
		path:      path,
		log:       log,
		rate:      decimal.RequireFromString(defaultRate),
		threshold: defaultBandwidthThreshold,
		fee:       decimal.RequireFromString(defaultFlatFee),
	}
	r.reload()
	return r
}

// Rate returns the current settlement-units-per-ledger-unit exchange rate.
// Always positive.
func (r *Runtime) Rate() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reload()
	return r.rate
}

// BandwidthThreshold returns the minimum free bandwidth a wallet needs to
// transfer without a fee.
func (r *Runtime) BandwidthThreshold() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reload()
	return r.threshold
}

// FlatFee returns the flat fee, in ledger currency, applied when no
// fee-free wallet can fund a payment.
func (r *Runtime) FlatFee() decimal.Decimal {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reload()
	return r.fee
}

// reload re-reads the backing document, keeping the last good values when
// the file is absent or a field fails validation. Callers hold r.mu.
func (r *Runtime) reload() {
	if err := r.v.ReadInConfig(); err != nil {
		r.log.Debug().Err(err).Str("path", r.path).Msg("runtime config not readable, keeping current values")
		return
	}

	if s := r.v.GetString("to_trx_rate"); s != "" {
		if rate, err := decimal.NewFromString(s); err == nil && rate.IsPositive() {
			r.rate = rate
		} else {
			r.log.Warn().Str("to_trx_rate", s).Msg("invalid exchange rate in runtime config, keeping current value")
		}
	}

	if r.v.IsSet("bandwidth_threshold") {
		if t := r.v.GetInt64("bandwidth_threshold"); t > 0 {
			r.threshold = t
		} else {
			r.log.Warn().Int64("bandwidth_threshold", r.v.GetInt64("bandwidth_threshold")).Msg("invalid bandwidth threshold in runtime config, keeping current value")
		}
	}

	if s := r.v.GetString("flat_fee"); s != "" {
		if fee, err := decimal.NewFromString(s); err == nil && !fee.IsNegative() {
			r.fee = fee
		} else {
			r.log.Warn().Str("flat_fee", s).Msg("invalid flat fee in runtime config, keeping current value")
		}
	}
}
