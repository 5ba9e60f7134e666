package wire

import (
	"encoding/json"

	"github.com/hitakshiA/havklo/common"
)

// SubscribeRequest is the outbound shape for both subscribe and unsubscribe.
type SubscribeRequest struct {
	Channel string
	Symbols []string
	// Params carries channel-specific extras (e.g. "depth", "snapshot")
	// passed through verbatim into the request's params object.
	Params map[string]any
}

// EncodeSubscribe builds a {"method":"subscribe",...} request.
func EncodeSubscribe(req SubscribeRequest) ([]byte, error) {
	return encodeSubscribeLike("subscribe", req)
}

// EncodeUnsubscribe builds a {"method":"unsubscribe",...} request.
func EncodeUnsubscribe(req SubscribeRequest) ([]byte, error) {
	return encodeSubscribeLike("unsubscribe", req)
}

func encodeSubscribeLike(method string, req SubscribeRequest) ([]byte, error) {
	params := map[string]any{
		"channel": req.Channel,
		"symbol":  req.Symbols,
	}
	for k, v := range req.Params {
		params[k] = v
	}
	out, err := json.Marshal(map[string]any{
		"method": method,
		"params": params,
	})
	if err != nil {
		return nil, common.Tag(common.KindParse, err)
	}
	return out, nil
}

// EncodePing builds the idle-poke {"method":"ping"} request.
func EncodePing() ([]byte, error) {
	out, err := json.Marshal(map[string]string{"method": "ping"})
	if err != nil {
		return nil, common.Tag(common.KindParse, err)
	}
	return out, nil
}

// EncodeTrading passes an already-built authenticated trading request
// through unmodified; its contents are opaque to the core engine, which only
// needs to move bytes onto the wire once the caller has signed/shaped them.
func EncodeTrading(req json.RawMessage) ([]byte, error) {
	if len(req) == 0 {
		return nil, common.Tagf(common.KindInvalidParameter, "wire: empty trading request")
	}
	return []byte(req), nil
}
