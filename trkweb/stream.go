package trkweb

import (
	"encoding/json"
	"strconv"
	"strings"

	"net/http"

	"github.com/bernerdschaefer/eventsource"

	"github.com/objtrack/trk"
)

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	if !requestExplicitlyAccepts(r, "text/event-stream") {
		http.Error(w, "request must Accept: text/event-stream", http.StatusPreconditionRequired)
		return
	}

	var (
		ctx = r.Context()
		buf = parseDefault(r.URL.Query().Get("buf"), strconv.Atoi, 10)
		ch  = make(chan trk.SweepData, buf)
	)

	if err := s.broker.Subscribe(ch); err != nil {
		http.Error(w, "subscribe: "+err.Error(), http.StatusInternalServerError)
		return
	}

	defer func() {
		sends, drops, err := s.broker.Unsubscribe(ch)
		if err != nil {
			s.log.Error().Err(err).Msg("unsubscribe")
			return
		}
		s.log.Debug().
			Uint64("sends", sends).
			Uint64("drops", drops).
			Str("remote", r.RemoteAddr).
			Msg("stream done")
	}()

	s.log.Debug().Str("remote", r.RemoteAddr).Int("buf", buf).Msg("stream start")

	eventsource.Handler(func(lastID string, encoder *eventsource.Encoder, stop <-chan bool) {
		var seq uint64
		for {
			select {
			case sw := <-ch:
				data, err := json.Marshal(sw)
				if err != nil {
					s.log.Error().Err(err).Msg("marshal sweep")
					continue
				}
				seq++
				if err := encoder.Encode(eventsource.Event{
					Type: "sweep",
					ID:   strconv.FormatUint(seq, 10),
					Data: data,
				}); err != nil {
					s.log.Error().Err(err).Msg("encode sweep")
					continue
				}

			case <-ctx.Done():
				return

			case <-stop:
				return
			}
		}
	}).ServeHTTP(w, r)
}

func requestExplicitlyAccepts(r *http.Request, accept string) bool {
	for _, a := range r.Header.Values("Accept") {
		for _, part := range strings.Split(a, ",") {
			mediatype := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
			if mediatype == accept {
				return true
			}
		}
	}
	return false
}
