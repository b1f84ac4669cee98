package estimate

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/budgetchat/internal/ledger"
)

func TestDecodeReplyWithoutMutation(t *testing.T) {
	r, err := DecodeReply([]byte(`{"reply":"Sure."}`))
	require.NoError(t, err)
	require.Equal(t, "Sure.", r.Text)
	require.Nil(t, r.Mutation)
}

func TestDecodeReplyOps(t *testing.T) {
	body := `{
		"reply": "Added a window.",
		"mutation": {"ops": [
			{"op": "append_item", "section": "Windows",
			 "item": {"name": "Aluminium window", "quantity": 1, "unit": "ud", "unit_price": "280", "total": "999999"}},
			{"op": "remove_item", "section": "Painting", "index": 0}
		]}
	}`
	r, err := DecodeReply([]byte(body))
	require.NoError(t, err)

	patch, ok := r.Mutation.(ledger.Patch)
	require.True(t, ok, "mutation is %T", r.Mutation)
	require.Len(t, patch.Ops, 2)
	require.Equal(t, ledger.OpAppendItem, patch.Ops[0].Kind)
	require.True(t, patch.Ops[0].Item.Total().Equal(decimal.NewFromInt(280)), "incoming total must be ignored")
	require.Equal(t, 0, patch.Ops[1].Index)

	next, err := r.Mutation.Apply(ledger.Seed())
	require.NoError(t, err)
	// 10690 + 280 - 1440
	require.True(t, next.Total().Equal(decimal.NewFromInt(9530)), "total %s", next.Total())
}

func TestDecodeReplyReplace(t *testing.T) {
	body := `{"reply":"Fresh start.","mutation":{"replace":{"sections":[
		{"title":"Masonry","items":[{"name":"Wall construction","quantity":"45","unit":"m²","unit_price":"65"}]}
	]}}}`
	r, err := DecodeReply([]byte(body))
	require.NoError(t, err)

	next, err := r.Mutation.Apply(ledger.Seed())
	require.NoError(t, err)
	require.Equal(t, []string{"Masonry"}, next.Titles())
	require.True(t, next.Total().Equal(decimal.NewFromInt(2925)))
}

func TestDecodeReplyMalformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"reply":`,
		"unknown op":      `{"reply":"x","mutation":{"ops":[{"op":"explode"}]}}`,
		"missing item":    `{"reply":"x","mutation":{"ops":[{"op":"append_item","section":"Windows"}]}}`,
		"missing index":   `{"reply":"x","mutation":{"ops":[{"op":"remove_item","section":"Windows"}]}}`,
		"missing section": `{"reply":"x","mutation":{"ops":[{"op":"append_section"}]}}`,
		"both forms":      `{"reply":"x","mutation":{"replace":{"sections":[]},"ops":[{"op":"remove_section","section":"A"}]}}`,
		"negative price":  `{"reply":"x","mutation":{"ops":[{"op":"append_item","section":"A","item":{"name":"n","quantity":1,"unit":"ud","unit_price":-1}}]}}`,
	}
	for name, body := range cases {
		_, err := DecodeReply([]byte(body))
		if err == nil {
			t.Fatalf("%s: expected error", name)
		}
		if !errors.Is(err, ErrMalformedReply) {
			t.Fatalf("%s: err = %v, want ErrMalformedReply", name, err)
		}
	}
}

func TestEncodeReplyThenDecode(t *testing.T) {
	window := ledger.MustItem("Aluminium window", 1, "ud", 280)
	in := Reply{
		Text: "Done.",
		Mutation: ledger.Patch{Ops: []ledger.Op{
			{Kind: ledger.OpAppendItem, Section: "Windows", Item: window},
			{Kind: ledger.OpUpdateItem, Section: "Painting", Index: 1, Item: ledger.MustItem("Exterior painting", 100, "m²", 15)},
			{Kind: ledger.OpRemoveSection, Section: "Plumbing"},
		}},
	}

	data, err := EncodeReply(in)
	require.NoError(t, err)

	out, err := DecodeReply(data)
	require.NoError(t, err)
	require.Equal(t, in.Text, out.Text)

	want, err := in.Mutation.Apply(ledger.Seed())
	require.NoError(t, err)
	got, err := out.Mutation.Apply(ledger.Seed())
	require.NoError(t, err)
	require.True(t, want.Total().Equal(got.Total()))
	require.Equal(t, want.Titles(), got.Titles())
}

func TestEncodeRequestUsesEmptyArrays(t *testing.T) {
	data, err := EncodeRequest(Request{})
	require.NoError(t, err)
	require.JSONEq(t, `{"history":[],"document":{"sections":[]}}`, string(data))
}
