package wire

import (
	"encoding/json"

	"github.com/buger/jsonparser"
	"github.com/shopspring/decimal"

	"github.com/hitakshiA/havklo/common"
	"github.com/hitakshiA/havklo/quote"
)

// Sniff extracts the frame's channel or method tag without a full decode,
// for cheap routing/logging ahead of the typed decode. It returns "" if
// neither field is present or raw is not an object.
func Sniff(raw []byte) string {
	if ch, err := jsonparser.GetString(raw, "channel"); err == nil {
		return ch
	}
	if m, err := jsonparser.GetString(raw, "method"); err == nil {
		return m
	}
	return ""
}

type wireLevel struct {
	Price string `json:"price"`
	Qty   string `json:"qty"`
}

type wireBookData struct {
	Symbol   string      `json:"symbol"`
	Bids     []wireLevel `json:"bids"`
	Asks     []wireLevel `json:"asks"`
	Checksum uint32      `json:"checksum"`
	Sequence uint64      `json:"sequence"`
}

type wireBookFrame struct {
	Channel string         `json:"channel"`
	Type    string         `json:"type"`
	Data    []wireBookData `json:"data"`
}

type wireStatusData struct {
	System  string `json:"system"`
	Version string `json:"version"`
}

type wireStatusFrame struct {
	Channel string           `json:"channel"`
	Data    []wireStatusData `json:"data"`
}

type wireMethodResult struct {
	Channel string   `json:"channel"`
	Symbol  []string `json:"symbol"`
}

type wireMethodFrame struct {
	Method  string           `json:"method"`
	Success *bool            `json:"success"`
	Error   string           `json:"error"`
	Result  wireMethodResult `json:"result"`
}

type wireL3Order struct {
	OrderID string `json:"order_id"`
	Event   string `json:"event"`
	Side    string `json:"side"`
	Price   string `json:"limit_price"`
	Qty     string `json:"order_qty"`
}

type wireL3Data struct {
	Symbol string        `json:"symbol"`
	Orders []wireL3Order `json:"orders"`
}

type wireL3Frame struct {
	Channel string       `json:"channel"`
	Type    string       `json:"type"`
	Data    []wireL3Data `json:"data"`
}

type wireErrorFrame struct {
	Error     string `json:"error"`
	ErrorCode string `json:"errorCode"`
}

// DecodeAll decodes raw into zero or more Frames — book/status/L3 frames can
// batch several symbols under one "data" array, each becoming its own Frame.
// Decode failure is always a common.KindParse-tagged error, never a panic;
// callers should surface it as a non-fatal warning and continue reading.
func DecodeAll(raw []byte) ([]Frame, error) {
	tag := Sniff(raw)
	switch tag {
	case "heartbeat":
		return []Frame{Heartbeat{}}, nil
	case "status":
		return decodeStatus(raw)
	case "book":
		return decodeBook(raw)
	case "level3":
		return decodeL3(raw)
	case "subscribe", "unsubscribe":
		return decodeMethod(raw)
	case "pong":
		return []Frame{Pong{}}, nil
	case "":
		if _, _, _, err := jsonparser.Get(raw, "error"); err == nil {
			return decodeError(raw)
		}
		return nil, common.Tagf(common.KindParse, "wire: frame has neither channel nor method: %s", truncate(raw))
	default:
		return nil, common.Tagf(common.KindParse, "wire: unrecognized channel/method %q", tag)
	}
}

func decodeStatus(raw []byte) ([]Frame, error) {
	var f wireStatusFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, common.Tag(common.KindParse, err)
	}
	out := make([]Frame, 0, len(f.Data))
	for _, d := range f.Data {
		out = append(out, Status{System: d.System, Version: d.Version})
	}
	return out, nil
}

func decodeBook(raw []byte) ([]Frame, error) {
	var f wireBookFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, common.Tag(common.KindParse, err)
	}
	out := make([]Frame, 0, len(f.Data))
	for _, d := range f.Data {
		bids, err := decodeLevels(d.Bids)
		if err != nil {
			return nil, err
		}
		asks, err := decodeLevels(d.Asks)
		if err != nil {
			return nil, err
		}
		switch f.Type {
		case "snapshot":
			out = append(out, Snapshot{Symbol: d.Symbol, Bids: bids, Asks: asks, Checksum: d.Checksum})
		case "update":
			out = append(out, Update{Symbol: d.Symbol, Bids: bids, Asks: asks, Checksum: d.Checksum, Sequence: d.Sequence})
		default:
			return nil, common.Tagf(common.KindParse, "wire: unrecognized book frame type %q", f.Type)
		}
	}
	return out, nil
}

func decodeLevels(levels []wireLevel) ([]quote.Level, error) {
	out := make([]quote.Level, 0, len(levels))
	for _, l := range levels {
		price, err := decimal.NewFromString(l.Price)
		if err != nil {
			return nil, common.Tagf(common.KindParse, "wire: bad price %q: %v", l.Price, err)
		}
		qty, err := decimal.NewFromString(l.Qty)
		if err != nil {
			return nil, common.Tagf(common.KindParse, "wire: bad qty %q: %v", l.Qty, err)
		}
		out = append(out, quote.NewLevel(price, qty))
	}
	return out, nil
}

func decodeL3(raw []byte) ([]Frame, error) {
	var f wireL3Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, common.Tag(common.KindParse, err)
	}
	out := make([]Frame, 0, len(f.Data))
	for _, d := range f.Data {
		events, err := decodeL3Events(d.Orders)
		if err != nil {
			return nil, err
		}
		switch f.Type {
		case "snapshot":
			out = append(out, L3Snapshot{Symbol: d.Symbol, Orders: events})
		case "update":
			out = append(out, L3Update{Symbol: d.Symbol, Events: events})
		default:
			return nil, common.Tagf(common.KindParse, "wire: unrecognized l3 frame type %q", f.Type)
		}
	}
	return out, nil
}

func decodeL3Events(orders []wireL3Order) ([]L3Event, error) {
	out := make([]L3Event, 0, len(orders))
	for _, o := range orders {
		var kind L3EventKind
		switch o.Event {
		case "add":
			kind = L3Add
		case "modify":
			kind = L3Modify
		case "delete":
			kind = L3Delete
		default:
			return nil, common.Tagf(common.KindParse, "wire: unrecognized l3 event %q", o.Event)
		}
		evt := L3Event{OrderID: o.OrderID, Kind: kind, Side: o.Side}
		if o.Price != "" {
			price, err := decimal.NewFromString(o.Price)
			if err != nil {
				return nil, common.Tagf(common.KindParse, "wire: bad limit_price %q: %v", o.Price, err)
			}
			evt.Price = price
		}
		if o.Qty != "" {
			qty, err := decimal.NewFromString(o.Qty)
			if err != nil {
				return nil, common.Tagf(common.KindParse, "wire: bad order_qty %q: %v", o.Qty, err)
			}
			evt.Qty = qty
		}
		out = append(out, evt)
	}
	return out, nil
}

func decodeMethod(raw []byte) ([]Frame, error) {
	var f wireMethodFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, common.Tag(common.KindParse, err)
	}
	if f.Success != nil && !*f.Success {
		reason := f.Error
		if reason == "" {
			reason = "rejected"
		}
		return []Frame{SubscriptionNack{Channel: f.Result.Channel, Reason: reason}}, nil
	}
	if f.Method == "unsubscribe" {
		return []Frame{UnsubscribeAck{Channel: f.Result.Channel, Symbols: f.Result.Symbol}}, nil
	}
	return []Frame{SubscriptionAck{Channel: f.Result.Channel, Symbols: f.Result.Symbol}}, nil
}

func decodeError(raw []byte) ([]Frame, error) {
	var f wireErrorFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, common.Tag(common.KindParse, err)
	}
	return []Frame{ErrorFrame{Code: f.ErrorCode, Message: f.Error}}, nil
}

func truncate(raw []byte) string {
	const max = 200
	if len(raw) <= max {
		return string(raw)
	}
	return string(raw[:max]) + "..."
}
