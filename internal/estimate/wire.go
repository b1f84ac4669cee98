package estimate

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/theirongolddev/budgetchat/internal/chat"
	"github.com/theirongolddev/budgetchat/internal/ledger"
)

// ErrMalformedReply indicates a reply body that could not be decoded.
var ErrMalformedReply = errors.New("estimate: malformed reply")

type wireRequest struct {
	History  []chat.Message  `json:"history"`
	Document ledger.Document `json:"document"`
}

type wireReply struct {
	Reply    string        `json:"reply"`
	Mutation *wireMutation `json:"mutation,omitempty"`
}

type wireMutation struct {
	Replace *ledger.Document `json:"replace,omitempty"`
	Ops     []wireOp         `json:"ops,omitempty"`
}

type wireOp struct {
	Op         string          `json:"op"`
	Section    string          `json:"section,omitempty"`
	Index      *int            `json:"index,omitempty"`
	Item       *ledger.Item    `json:"item,omitempty"`
	NewSection *ledger.Section `json:"new_section,omitempty"`
}

// EncodeRequest renders a request in the JSON wire format.
func EncodeRequest(req Request) ([]byte, error) {
	history := req.History
	if history == nil {
		history = []chat.Message{}
	}
	doc := req.Document
	if doc.Sections == nil {
		doc.Sections = []ledger.Section{}
	}
	return json.Marshal(wireRequest{History: history, Document: doc})
}

// DecodeRequest parses a JSON wire request.
func DecodeRequest(data []byte) (Request, error) {
	var raw wireRequest
	if err := json.Unmarshal(data, &raw); err != nil {
		return Request{}, fmt.Errorf("estimate: decoding request: %w", err)
	}
	return Request{History: raw.History, Document: raw.Document}, nil
}

// EncodeReply renders a reply in the JSON wire format.
func EncodeReply(r Reply) ([]byte, error) {
	out := wireReply{Reply: r.Text}
	switch m := r.Mutation.(type) {
	case nil:
	case ledger.Replace:
		doc := m.Document
		out.Mutation = &wireMutation{Replace: &doc}
	case ledger.Patch:
		ops := make([]wireOp, 0, len(m.Ops))
		for _, op := range m.Ops {
			ops = append(ops, encodeOp(op))
		}
		out.Mutation = &wireMutation{Ops: ops}
	default:
		return nil, fmt.Errorf("estimate: unsupported mutation %T", r.Mutation)
	}
	return json.Marshal(out)
}

func encodeOp(op ledger.Op) wireOp {
	w := wireOp{Op: string(op.Kind), Section: op.Section}
	switch op.Kind {
	case ledger.OpReplaceSection, ledger.OpAppendSection:
		s := op.NewSection
		w.NewSection = &s
	case ledger.OpAppendItem:
		it := op.Item
		w.Item = &it
	case ledger.OpRemoveItem:
		idx := op.Index
		w.Index = &idx
	case ledger.OpUpdateItem:
		idx, it := op.Index, op.Item
		w.Index, w.Item = &idx, &it
	}
	return w
}

// DecodeReply parses a JSON wire reply. Items are priced on decode, so any
// total carried by the collaborator is ignored.
func DecodeReply(data []byte) (Reply, error) {
	var raw wireReply
	if err := json.Unmarshal(data, &raw); err != nil {
		return Reply{}, fmt.Errorf("%w: %v", ErrMalformedReply, err)
	}

	reply := Reply{Text: raw.Reply}
	if raw.Mutation == nil {
		return reply, nil
	}

	switch {
	case raw.Mutation.Replace != nil && len(raw.Mutation.Ops) > 0:
		return Reply{}, fmt.Errorf("%w: both replace and ops set", ErrMalformedReply)
	case raw.Mutation.Replace != nil:
		reply.Mutation = ledger.Replace{Document: *raw.Mutation.Replace}
	case len(raw.Mutation.Ops) > 0:
		ops := make([]ledger.Op, 0, len(raw.Mutation.Ops))
		for i, w := range raw.Mutation.Ops {
			op, err := decodeOp(w)
			if err != nil {
				return Reply{}, fmt.Errorf("%w: op %d: %v", ErrMalformedReply, i, err)
			}
			ops = append(ops, op)
		}
		reply.Mutation = ledger.Patch{Ops: ops}
	}
	return reply, nil
}

func decodeOp(w wireOp) (ledger.Op, error) {
	op := ledger.Op{Kind: ledger.OpKind(w.Op), Section: w.Section}

	needSection := func() error {
		if w.NewSection == nil {
			return fmt.Errorf("%s requires new_section", w.Op)
		}
		op.NewSection = *w.NewSection
		return nil
	}
	needItem := func() error {
		if w.Item == nil {
			return fmt.Errorf("%s requires item", w.Op)
		}
		op.Item = *w.Item
		return nil
	}
	needIndex := func() error {
		if w.Index == nil {
			return fmt.Errorf("%s requires index", w.Op)
		}
		op.Index = *w.Index
		return nil
	}

	var err error
	switch op.Kind {
	case ledger.OpReplaceSection, ledger.OpAppendSection:
		err = needSection()
	case ledger.OpRemoveSection:
	case ledger.OpAppendItem:
		err = needItem()
	case ledger.OpRemoveItem:
		err = needIndex()
	case ledger.OpUpdateItem:
		if err = needIndex(); err == nil {
			err = needItem()
		}
	default:
		err = fmt.Errorf("unknown op %q", w.Op)
	}
	return op, err
}
