// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

package inscriptions

import (
	"math/big"

	"ordlib/bitcoin/ord/cbor"
	"ordlib/bitcoin/ord/script"
	"ordlib/internal/reverse"
)

// TagEntry is a single (tag, data) pair exactly as it appears on the wire,
// before any grouping or decoding by tag number.
type TagEntry struct {
	Tag  Tag
	Data []byte
}

// Tags is the decoded field set of an inscription envelope, one field per
// named tag plus an Unknown bucket for everything this package doesn't
// recognize.
type Tags struct {
	ContentType     string
	Pointer         *uint64
	Parent          []ID
	Metadata        any
	Metaprotocol    string
	ContentEncoding string
	Delegate        *ID
	Rune            *big.Int
	Note            string
	Unknown         []TagEntry
}

// chunkBytes splits data into script.MaxScriptElementSize-sized pieces,
// the same push-size limit the envelope codec applies to the body.
func chunkBytes(data []byte) [][]byte {
	if len(data) == 0 {
		return [][]byte{{}}
	}

	chunks := make([][]byte, 0, (len(data)/script.MaxScriptElementSize)+1)
	for start := 0; start < len(data); start += script.MaxScriptElementSize {
		end := start + script.MaxScriptElementSize
		if end > len(data) {
			end = len(data)
		}
		chunks = append(chunks, data[start:end])
	}

	return chunks
}

// emitField appends one TagEntry group (one or more chunks of the same
// tag) for a single non-empty data value.
func emitField(entries []TagEntry, tag Tag, data []byte) []TagEntry {
	for _, chunk := range chunkBytes(data) {
		entries = append(entries, TagEntry{Tag: tag, Data: chunk})
	}

	return entries
}

// uint64ToTrimmedLE renders n as little-endian bytes with trailing zero
// bytes omitted, mirroring InscriptionId.IndexLETrailingZerosOmitted.
func uint64ToTrimmedLE(n uint64) []byte {
	data := make([]byte, 8)
	for i := 0; i < 8; i++ {
		data[i] = byte(n >> (8 * i))
	}
	for last := 7; last >= 0; last-- {
		if data[last] != 0 {
			return data[:last+1]
		}
	}

	return []byte{}
}

// trimmedLEToUint64 parses the inverse of uint64ToTrimmedLE.
func trimmedLEToUint64(data []byte) uint64 {
	var n uint64
	for i, b := range data {
		if i >= 8 {
			break
		}
		n |= uint64(b) << (8 * i)
	}

	return n
}

// bigIntToTrimmedLE renders v as little-endian bytes with trailing zero
// bytes omitted, the wire form the teacher's reverse.Bytes pattern already
// produces for Pointer and Rune.
func bigIntToTrimmedLE(v *big.Int) []byte {
	return reverse.Bytes(v.Bytes())
}

// bigIntFromTrimmedLE parses the inverse of bigIntToTrimmedLE.
func bigIntFromTrimmedLE(data []byte) *big.Int {
	be := make([]byte, len(data))
	copy(be, data)

	return new(big.Int).SetBytes(reverse.Bytes(be))
}

// EncodeTags renders t into the ordered, chunked (tag, data) stream the
// envelope codec writes after the protocol marker. Field order matches
// spec.md §4.C; Parent emits one independently chunked group per list
// element; Unknown entries are appended last, verbatim, in their original
// order.
func EncodeTags(t Tags) ([]TagEntry, error) {
	var entries []TagEntry

	if t.ContentType != "" {
		entries = emitField(entries, TagContentType, []byte(t.ContentType))
	}

	if t.Pointer != nil {
		entries = emitField(entries, TagPointer, uint64ToTrimmedLE(*t.Pointer))
	}

	for _, parent := range t.Parent {
		entries = emitField(entries, TagParent, parent.IntoDataPush())
	}

	if t.Metadata != nil {
		encoded, err := cbor.Encode(t.Metadata)
		if err != nil {
			return nil, err
		}
		entries = emitField(entries, TagMetadata, encoded)
	}

	if t.Metaprotocol != "" {
		entries = emitField(entries, TagMetaprotocol, []byte(t.Metaprotocol))
	}

	if t.ContentEncoding != "" {
		entries = emitField(entries, TagContentEncoding, []byte(t.ContentEncoding))
	}

	if t.Delegate != nil {
		entries = emitField(entries, TagDelegate, t.Delegate.IntoDataPush())
	}

	if t.Rune != nil {
		entries = emitField(entries, TagRune, bigIntToTrimmedLE(t.Rune))
	}

	if t.Note != "" {
		entries = emitField(entries, TagNote, []byte(t.Note))
	}

	entries = append(entries, t.Unknown...)

	return entries, nil
}

// DecodeTags groups entries by tag number, preserving wire order, and
// decodes each group into the corresponding Tags field. Each parent entry
// decodes independently into one list element (an ID is at most 36 bytes,
// so EncodeTags never splits one across entries, and consecutive parent
// entries are separate parents); every other known tag concatenates all of
// its entries across the whole entry stream before decoding once. Tag
// numbers with no known field accumulate into Unknown, verbatim, in
// original order.
func DecodeTags(entries []TagEntry) (Tags, error) {
	var t Tags

	var contentType, metaprotocol, contentEncoding, note [][]byte
	var pointerChunks, metadataChunks, runeChunks [][]byte
	var parentGroups [][][]byte
	var delegateChunks [][]byte

	var currentParent [][]byte
	inParentGroup := false

	flushParent := func() {
		if inParentGroup {
			parentGroups = append(parentGroups, currentParent)
			currentParent = nil
			inParentGroup = false
		}
	}

	for _, e := range entries {
		if e.Tag != TagParent {
			flushParent()
		}

		switch e.Tag {
		case TagContentType:
			contentType = append(contentType, e.Data)
		case TagPointer:
			pointerChunks = append(pointerChunks, e.Data)
		case TagParent:
			flushParent()
			currentParent = append(currentParent, e.Data)
			inParentGroup = true
		case TagMetadata:
			metadataChunks = append(metadataChunks, e.Data)
		case TagMetaprotocol:
			metaprotocol = append(metaprotocol, e.Data)
		case TagContentEncoding:
			contentEncoding = append(contentEncoding, e.Data)
		case TagDelegate:
			delegateChunks = append(delegateChunks, e.Data)
		case TagRune:
			runeChunks = append(runeChunks, e.Data)
		case TagNote:
			note = append(note, e.Data)
		default:
			t.Unknown = append(t.Unknown, e)
		}
	}
	flushParent()

	if len(contentType) != 0 {
		t.ContentType = string(concatChunks(contentType))
	}

	if len(pointerChunks) != 0 {
		n := trimmedLEToUint64(concatChunks(pointerChunks))
		t.Pointer = &n
	}

	for _, group := range parentGroups {
		id, err := NewIDFromDataPush(concatChunks(group))
		if err != nil {
			return Tags{}, err
		}
		t.Parent = append(t.Parent, *id)
	}

	if len(metadataChunks) != 0 {
		decoded, err := cbor.Decode(concatChunks(metadataChunks))
		if err != nil {
			return Tags{}, err
		}
		t.Metadata = decoded
	}

	if len(metaprotocol) != 0 {
		t.Metaprotocol = string(concatChunks(metaprotocol))
	}

	if len(contentEncoding) != 0 {
		t.ContentEncoding = string(concatChunks(contentEncoding))
	}

	if len(delegateChunks) != 0 {
		id, err := NewIDFromDataPush(concatChunks(delegateChunks))
		if err != nil {
			return Tags{}, err
		}
		t.Delegate = id
	}

	if len(runeChunks) != 0 {
		t.Rune = bigIntFromTrimmedLE(concatChunks(runeChunks))
	}

	if len(note) != 0 {
		t.Note = string(concatChunks(note))
	}

	return t, nil
}

// concatChunks joins a tag's data-push groups in wire order.
func concatChunks(chunks [][]byte) []byte {
	var out []byte
	for _, c := range chunks {
		out = append(out, c...)
	}

	return out
}
