package aggregator

import (
	"math/big"
	"time"

	"github.com/StrathCole/oracle-rounds/pkg/numeric"
)

// shouldOpenRound reports whether a proposal made at now may open a new round.
// A feed that never finalized always accepts an opener.
func shouldOpenRound(st *feedState, proposed *big.Int, now time.Time) bool {
	if !st.hasData() {
		return true
	}
	cfg := st.config
	if cfg.HeartbeatEnabled() && now.Sub(st.latest.UpdatedAt) >= cfg.Heartbeat {
		return true
	}
	if cfg.DeviationEnabled() && numeric.Deviates(st.latest.Answer, proposed, cfg.DeviationThresholdBps) {
		return true
	}
	return false
}
