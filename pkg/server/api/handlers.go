package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/StrathCole/oracle-rounds/pkg/auth"
	"github.com/StrathCole/oracle-rounds/pkg/config"
	"github.com/StrathCole/oracle-rounds/pkg/numeric"
	"github.com/StrathCole/oracle-rounds/pkg/server/aggregator"
	"github.com/StrathCole/oracle-rounds/pkg/server/compat"
)

// handleHealth handles /health endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sendJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"paused": s.engine.Paused(),
		"feeds":  len(s.engine.Feeds()),
	})
}

func (s *Server) handleListFeeds(w http.ResponseWriter, _ *http.Request) {
	out := make([]FeedResponse, 0)
	for _, id := range s.engine.Feeds() {
		resp, err := s.feedResponse(id, false)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, resp)
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	resp, err := s.feedResponse(mux.Vars(r)["feedID"], true)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) feedResponse(feedID string, withOperators bool) (FeedResponse, error) {
	cfg, err := s.engine.Config(feedID)
	if err != nil {
		return FeedResponse{}, err
	}
	resp := newFeedResponse(cfg)

	status, err := s.engine.OpenRound(feedID)
	if err != nil {
		return FeedResponse{}, err
	}
	resp.Round = newRoundStatusResponse(status)

	latest, err := s.engine.LatestRound(feedID)
	switch {
	case err == nil:
		round := newRoundResponse(feedID, cfg.Decimals, latest)
		resp.Latest = &round
	case !errors.Is(err, aggregator.ErrNoData):
		return FeedResponse{}, err
	}

	if withOperators {
		operators, err := s.engine.Operators(feedID)
		if err != nil {
			return FeedResponse{}, err
		}
		resp.Operators = make([]string, len(operators))
		for i, op := range operators {
			resp.Operators[i] = op.Hex()
		}
	}
	return resp, nil
}

func (s *Server) handleLatest(w http.ResponseWriter, r *http.Request) {
	feedID := mux.Vars(r)["feedID"]
	cfg, err := s.engine.Config(feedID)
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.engine.LatestRound(feedID)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newRoundResponse(feedID, cfg.Decimals, snap))
}

func (s *Server) handleRound(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roundID, err := parseRoundID(vars["roundID"])
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := s.engine.Config(vars["feedID"])
	if err != nil {
		writeError(w, err)
		return
	}
	snap, err := s.engine.Round(vars["feedID"], roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newRoundResponse(vars["feedID"], cfg.Decimals, snap))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	feedID := mux.Vars(r)["feedID"]
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 {
			writeError(w, fmt.Errorf("%w: limit %q", ErrInvalidRequest, raw))
			return
		}
		limit = v
	}

	cfg, err := s.engine.Config(feedID)
	if err != nil {
		writeError(w, err)
		return
	}
	snaps, err := s.engine.Recent(feedID, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]RoundResponse, len(snaps))
	for i, snap := range snaps {
		out[i] = newRoundResponse(feedID, cfg.Decimals, snap)
	}
	sendJSON(w, http.StatusOK, out)
}

func (s *Server) handleNextRound(w http.ResponseWriter, r *http.Request) {
	feedID := mux.Vars(r)["feedID"]
	roundID, err := s.engine.NextRoundID(feedID)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := map[string]interface{}{"round_id": roundID}

	if raw := r.URL.Query().Get("proposed"); raw != "" {
		proposed, err := numeric.ParseInteger(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: proposed: %w", ErrInvalidRequest, err))
			return
		}
		due, err := s.engine.DueToOpen(feedID, proposed)
		if err != nil {
			writeError(w, err)
			return
		}
		resp["due"] = due
	}
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleStale(w http.ResponseWriter, r *http.Request) {
	feedID := mux.Vars(r)["feedID"]
	cfg, err := s.engine.Config(feedID)
	if err != nil {
		writeError(w, err)
		return
	}

	maxAge := cfg.Heartbeat
	if raw := r.URL.Query().Get("max_age"); raw != "" {
		maxAge, err = time.ParseDuration(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: max_age: %w", ErrInvalidRequest, err))
			return
		}
	}
	if maxAge <= 0 {
		writeError(w, fmt.Errorf("%w: max_age is required for feeds without heartbeat", ErrInvalidRequest))
		return
	}

	stale, err := s.engine.IsStale(feedID, maxAge)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"stale": stale, "max_age": maxAge.String()})
}

func (s *Server) handleOperators(w http.ResponseWriter, r *http.Request) {
	s.handleOperatorsStatus(w, r, http.StatusOK)
}

func (s *Server) handleIsOperator(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	op, err := parseAddress(vars["address"])
	if err != nil {
		writeError(w, err)
		return
	}
	ok, err := s.engine.IsOperator(vars["feedID"], op)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"operator": op.Hex(), "is_operator": ok})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req SubmissionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	env, sig, err := req.Envelope()
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.engine.SubmitSigned(mux.Vars(r)["feedID"], env, sig)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, SubmissionResponse{
		RoundID:    res.RoundID,
		Opened:     res.Opened,
		Finalized:  res.Finalized,
		Resolution: res.Resolution.String(),
		Accepted:   1,
	})
}

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	envs := make([]auth.Envelope, len(req.Submissions))
	sigs := make([][]byte, len(req.Submissions))
	for i, sub := range req.Submissions {
		env, sig, err := sub.Envelope()
		if err != nil {
			writeError(w, fmt.Errorf("entry %d: %w", i, err))
			return
		}
		envs[i], sigs[i] = env, sig
	}

	res, err := s.engine.SubmitSignedBatch(mux.Vars(r)["feedID"], envs, sigs)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, SubmissionResponse{
		RoundID:    res.RoundID,
		Opened:     res.Opened,
		Finalized:  res.Finalized,
		Resolution: res.Resolution.String(),
		Accepted:   res.Accepted,
		Ignored:    res.Ignored,
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	res, err := s.engine.ResolveIfTimedOut(mux.Vars(r)["feedID"])
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]interface{}{"resolution": res.String()})
}

func (s *Server) handleCompatLatest(w http.ResponseWriter, r *http.Request) {
	adapter, err := compat.New(s.engine, mux.Vars(r)["feedID"])
	if err != nil {
		writeError(w, err)
		return
	}
	data, err := adapter.LatestRoundData()
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newCompatRoundResponse(data))
}

func (s *Server) handleCompatRound(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	adapter, err := compat.New(s.engine, vars["feedID"])
	if err != nil {
		writeError(w, err)
		return
	}
	roundID, err := strconv.ParseUint(vars["roundID"], 10, 64)
	if err != nil {
		writeError(w, compat.ErrNoDataPresent)
		return
	}
	data, err := adapter.GetRoundData(roundID)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, newCompatRoundResponse(data))
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	s.engine.Pause()
	sendJSON(w, http.StatusOK, map[string]bool{"paused": true})
}

func (s *Server) handleUnpause(w http.ResponseWriter, _ *http.Request) {
	s.engine.Unpause()
	sendJSON(w, http.StatusOK, map[string]bool{"paused": false})
}

func (s *Server) handleCreateFeed(w http.ResponseWriter, r *http.Request) {
	var req config.FeedConfig
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	cfg, operators, err := req.ToFeed()
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.CreateFeed(cfg, operators); err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.feedResponse(cfg.ID, true)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleUpdateFeed(w http.ResponseWriter, r *http.Request) {
	var req config.FeedConfig
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	feedID := mux.Vars(r)["feedID"]
	if req.ID == "" {
		req.ID = feedID
	}
	if len(req.Operators) > 0 {
		writeError(w, fmt.Errorf("%w: operators are managed through the operators endpoints", ErrInvalidRequest))
		return
	}
	cfg, _, err := req.ToFeed()
	if err != nil {
		writeError(w, err)
		return
	}
	if cfg.ID != feedID {
		writeError(w, fmt.Errorf("%w: body id %q does not match path", ErrInvalidRequest, cfg.ID))
		return
	}
	if err := s.engine.UpdateConfig(cfg); err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.feedResponse(feedID, true)
	if err != nil {
		writeError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddOperator(w http.ResponseWriter, r *http.Request) {
	var req OperatorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	op, err := parseAddress(req.Operator)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.AddOperator(mux.Vars(r)["feedID"], op); err != nil {
		writeError(w, err)
		return
	}
	s.handleOperatorsStatus(w, r, http.StatusCreated)
}

func (s *Server) handleRemoveOperator(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	op, err := parseAddress(vars["address"])
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.engine.RemoveOperator(vars["feedID"], op); err != nil {
		writeError(w, err)
		return
	}
	s.handleOperatorsStatus(w, r, http.StatusOK)
}

func (s *Server) handleOperatorsStatus(w http.ResponseWriter, r *http.Request, status int) {
	operators, err := s.engine.Operators(mux.Vars(r)["feedID"])
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]string, len(operators))
	for i, op := range operators {
		out[i] = op.Hex()
	}
	sendJSON(w, status, map[string]interface{}{"operators": out})
}

func parseRoundID(raw string) (uint64, error) {
	roundID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: round id %q", ErrInvalidRequest, raw)
	}
	if roundID == 0 {
		return 0, aggregator.ErrBadRoundID
	}
	return roundID, nil
}

func parseAddress(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%w: address %q", config.ErrInvalidAddress, raw)
	}
	return common.HexToAddress(raw), nil
}
