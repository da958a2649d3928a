// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions_test

import (
	"math/big"
	"testing"

	"ordlib/bitcoin/ord/cbor"
	"ordlib/bitcoin/ord/inscriptions"

	"github.com/stretchr/testify/require"
)

func mustTestID(t *testing.T, s string) inscriptions.ID {
	id, err := inscriptions.NewIDFromString(s)
	require.NoError(t, err)

	return *id
}

func TestEncodeDecodeTagsRoundTrip(t *testing.T) {
	pointer := uint64(5)

	bigRune := new(big.Int).Lsh(big.NewInt(1), 70)

	tests := []struct {
		name string
		tags inscriptions.Tags
	}{
		{"empty", inscriptions.Tags{}},
		{"content type only", inscriptions.Tags{ContentType: "text/plain;charset=utf-8"}},
		{"pointer", inscriptions.Tags{Pointer: &pointer}},
		{
			"multi parent",
			inscriptions.Tags{
				Parent: []inscriptions.ID{
					mustTestID(t, "521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai0"),
					mustTestID(t, "521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai1"),
				},
			},
		},
		{
			"metadata map",
			inscriptions.Tags{
				Metadata: cbor.Map{{Key: "n", Value: uint64(42)}},
			},
		},
		{"rune bignum", inscriptions.Tags{Rune: bigRune}},
		{"content encoding and type", inscriptions.Tags{ContentType: "application/json", ContentEncoding: "br"}},
		{"unknown tags preserved", inscriptions.Tags{
			Unknown: []inscriptions.TagEntry{{Tag: inscriptions.Tag(250), Data: []byte{0x01}}},
		}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			entries, err := inscriptions.EncodeTags(test.tags)
			require.NoError(t, err)

			decoded, err := inscriptions.DecodeTags(entries)
			require.NoError(t, err)
			require.Equal(t, test.tags, decoded)
		})
	}
}

func TestDecodeTagsUnknownPreservesOrder(t *testing.T) {
	entries := []inscriptions.TagEntry{
		{Tag: inscriptions.Tag(250), Data: []byte{0x01}},
		{Tag: inscriptions.TagContentType, Data: []byte("text/plain")},
		{Tag: inscriptions.Tag(252), Data: []byte{0x02}},
	}

	decoded, err := inscriptions.DecodeTags(entries)
	require.NoError(t, err)
	require.Equal(t, "text/plain", decoded.ContentType)
	require.Equal(t, []inscriptions.TagEntry{
		{Tag: inscriptions.Tag(250), Data: []byte{0x01}},
		{Tag: inscriptions.Tag(252), Data: []byte{0x02}},
	}, decoded.Unknown)
}

func TestEncodeTagsChunksLargeField(t *testing.T) {
	long := make([]byte, 1200)
	for i := range long {
		long[i] = byte(i)
	}

	entries, err := inscriptions.EncodeTags(inscriptions.Tags{Metaprotocol: string(long)})
	require.NoError(t, err)
	require.Greater(t, len(entries), 1)

	decoded, err := inscriptions.DecodeTags(entries)
	require.NoError(t, err)
	require.Equal(t, string(long), decoded.Metaprotocol)
}

func TestEncodeTagsFieldOrder(t *testing.T) {
	pointer := uint64(1)
	delegate := mustTestID(t, "521f8eccffa4c41a3a7728dd012ea5a4a02feed81f41159231251ecf1e5c79dai0")

	entries, err := inscriptions.EncodeTags(inscriptions.Tags{
		ContentType:     "text/plain",
		Pointer:         &pointer,
		Metaprotocol:    "brc-20",
		ContentEncoding: "br",
		Delegate:        &delegate,
		Note:            "hello",
	})
	require.NoError(t, err)

	var order []inscriptions.Tag
	for _, e := range entries {
		order = append(order, e.Tag)
	}

	require.Equal(t, []inscriptions.Tag{
		inscriptions.TagContentType,
		inscriptions.TagPointer,
		inscriptions.TagMetaprotocol,
		inscriptions.TagContentEncoding,
		inscriptions.TagDelegate,
		inscriptions.TagNote,
	}, order)
}
