// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package envelope implements the ordinals envelope grammar: scanning a
// Taproot leaf script for `OP_0 OP_IF "ord" {TAG DATA} OP_0 {DATA}
// OP_ENDIF` blocks, recovering as many inscriptions as possible from a
// malformed script, and building the reverse (envelope-encoding)
// direction used by the reveal-script builder.
package envelope

import (
	"errors"

	"ordlib/bitcoin/ord/inscriptions"
	"ordlib/bitcoin/ord/script"
)

// ErrMalformedEnvelope defines that ParseWitness could not tokenize the
// witness script (witness[1]). An envelope whose header is followed by a
// non-bytes, non-OP_0 op is not reported with it: the non-strict parse
// ParseWitness runs skips such an envelope.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// ErrWrongWitnessShape defines that a witness stack did not have exactly
// the 3 elements (signature, script, control block) a Taproot script-path
// spend carries.
var ErrWrongWitnessShape = errors.New("wrong witness shape")

// pushValue reports the bytes a push-like op contributes to the payload:
// a literal data push as-is, or the single-byte materialization of a
// pushnum opcode (OP_1NEGATE -> 0x81, OP_1..OP_16 -> 0x01..0x10). ok is
// false for anything else (including the OP_0 sentinel, handled by the
// caller as a separate case).
func pushValue(op script.Op) (data []byte, isPushnum bool, ok bool) {
	if op.IsBytes() {
		return op.Data, false, true
	}

	if op.Kind == script.KindOpName {
		if op.Name == "1NEGATE" {
			return []byte{0x81}, true, true
		}
		if n, isNum := numericValue(op.Name); isNum {
			return []byte{byte(n)}, true, true
		}
	}

	return nil, false, false
}

// numericValue parses "1".."16" as used by script.OpName.
func numericValue(name string) (int, bool) {
	if len(name) == 0 || len(name) > 2 {
		return 0, false
	}

	n := 0
	for _, r := range name {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}

	if n < 1 || n > 16 {
		return 0, false
	}

	return n, true
}

// matchEnvelopeStart looks for an envelope's opening sequence at ops[pos],
// tolerating the two stutter variants spec.md §4.D calls out (an extra
// OP_0 before OP_IF, or an extra OP_0 where PROTOCOL_ID is expected).
// Returns the index of the first op after PROTOCOL_ID (where TAG/DATA
// pairs or the body separator begin), whether a stutter was seen, and
// whether the sequence matched at all.
func matchEnvelopeStart(ops []script.Op, pos int) (payloadStart int, stutter bool, matched bool) {
	at := func(i int) (script.Op, bool) {
		if i < 0 || i >= len(ops) {
			return script.Op{}, false
		}
		return ops[i], true
	}

	isProtocolID := func(op script.Op, ok bool) bool {
		return ok && op.IsBytes() && string(op.Data) == script.ProtocolID
	}
	isZero := func(op script.Op, ok bool) bool { return ok && op.Kind == script.KindZero }
	isIf := func(op script.Op, ok bool) bool { return ok && op.Kind == script.KindOpName && op.Name == "IF" }

	op0, ok0 := at(pos)
	if !isZero(op0, ok0) {
		return 0, false, false
	}

	op1, ok1 := at(pos + 1)
	op2, ok2 := at(pos + 2)
	op3, ok3 := at(pos + 3)

	// Plain form: OP_0 OP_IF PROTOCOL_ID ...
	if isIf(op1, ok1) && isProtocolID(op2, ok2) {
		return pos + 3, false, true
	}

	// Stutter variant 1: an extra OP_0 before OP_IF.
	if isZero(op1, ok1) && isIf(op2, ok2) && isProtocolID(op3, ok3) {
		return pos + 4, true, true
	}

	// Stutter variant 2: an extra OP_0 where PROTOCOL_ID is expected.
	if isIf(op1, ok1) && isZero(op2, ok2) {
		if isProtocolID(op3, ok3) {
			return pos + 4, true, true
		}
	}

	return 0, false, false
}

// ParseInscriptions scans scriptBytes for envelopes, recovering as many
// inscriptions as it can. A script with zero envelopes is valid in both
// modes (spec.md §3: a script "may contain ≥0 envelopes") and yields
// ([], true), not an absence value.
//
// In strict mode, any structural violation (pushnum, stutter, a malformed
// prefix, an op between/after envelopes that isn't the start of the next
// contiguous envelope) makes the whole parse fail, returning (nil, false)
// — the absence value a custom-script dispatcher uses to fall through to
// the next recognizer, never an error or panic. In non-strict mode,
// parsing recovers whatever envelopes it can, skipping past anything it
// can't make sense of, and marks the affected ones Cursed, exactly as
// spec.md §4.D describes.
func ParseInscriptions(scriptBytes []byte, strict bool) ([]inscriptions.Inscription, bool) {
	ops, err := script.DecodeScript(scriptBytes)
	if err != nil {
		return nil, false
	}

	startAt := 0
	if strict {
		if len(ops) < 2 {
			return nil, false
		}
		if !ops[0].IsBytes() || len(ops[0].Data) != 32 {
			return nil, false
		}
		if ops[1].Kind != script.KindOpName || ops[1].Name != "CHECKSIG" {
			return nil, false
		}
		startAt = 2
	}

	var result []inscriptions.Inscription
	pos := startAt

	for pos < len(ops) {
		payloadStart, stutter, matched := matchEnvelopeStart(ops, pos)
		if !matched {
			if strict {
				return nil, false
			}
			pos++
			continue
		}

		insc, pushnum, end, ok := parsePayload(ops, payloadStart)
		if !ok {
			if strict {
				return nil, false
			}
			pos++
			continue
		}

		if strict && (stutter || pushnum) {
			return nil, false
		}

		insc.Cursed = stutter || pushnum
		result = append(result, insc)

		pos = end
	}

	return result, true
}

// parsePayload reads TAG/DATA pairs, the OP_0 body separator, and the
// body's data pushes, starting immediately after PROTOCOL_ID. It returns
// the parsed inscription, whether any pushnum opcode was seen, and the
// op-index immediately after OP_ENDIF. ok is false if the payload never
// reaches a well-formed OP_ENDIF (a non-bytes, non-OP_0 op was seen where
// a tag, data, or body push was expected — the envelope is not emitted).
func parsePayload(ops []script.Op, start int) (insc inscriptions.Inscription, pushnum bool, end int, ok bool) {
	pos := start
	var pairs []inscriptions.TagEntry

	for {
		if pos >= len(ops) {
			return inscriptions.Inscription{}, false, 0, false
		}

		if ops[pos].Kind == script.KindZero {
			pos++
			break
		}

		tagData, tagPushnum, tagOK := pushValue(ops[pos])
		if !tagOK || len(tagData) == 0 {
			return inscriptions.Inscription{}, false, 0, false
		}
		pos++

		if pos >= len(ops) {
			return inscriptions.Inscription{}, false, 0, false
		}

		dataBytes, dataPushnum, dataOK := pushValue(ops[pos])
		if !dataOK {
			return inscriptions.Inscription{}, false, 0, false
		}
		pos++

		pairs = append(pairs, inscriptions.TagEntry{Tag: inscriptions.Tag(tagData[0]), Data: dataBytes})
		pushnum = pushnum || tagPushnum || dataPushnum
	}

	for pos < len(ops) && ops[pos].Kind == script.KindZero {
		pos++
	}

	var bodyParts [][]byte
	for {
		if pos >= len(ops) {
			return inscriptions.Inscription{}, false, 0, false
		}

		if ops[pos].Kind == script.KindOpName && ops[pos].Name == "ENDIF" {
			pos++
			break
		}

		data, dataPushnum, dataOK := pushValue(ops[pos])
		if !dataOK {
			return inscriptions.Inscription{}, false, 0, false
		}
		bodyParts = append(bodyParts, data)
		pushnum = pushnum || dataPushnum
		pos++
	}

	tags, err := inscriptions.DecodeTags(pairs)
	if err != nil {
		return inscriptions.Inscription{}, false, 0, false
	}

	var body []byte
	for _, part := range bodyParts {
		body = append(body, part...)
	}

	return inscriptions.Inscription{Tags: tags, Body: body}, pushnum, pos, true
}

// ParseWitness validates that witness has the 3-element shape a Taproot
// script-path spend carries (signature, leaf script, control block),
// then parses witness[1] in non-strict mode.
func ParseWitness(witness [][]byte) ([]inscriptions.Inscription, error) {
	if len(witness) != 3 {
		return nil, ErrWrongWitnessShape
	}

	result, ok := ParseInscriptions(witness[1], false)
	if !ok {
		return nil, ErrMalformedEnvelope
	}

	return result, nil
}

// EncodeInscriptions renders a sequence of inscriptions as concatenated
// envelopes: `OP_0 OP_IF "ord" {tag-pairs} OP_0 {body chunks} OP_ENDIF`
// per inscription, never cursed — encode cannot produce pushnum or
// stutter, per spec.md's Non-goals.
func EncodeInscriptions(inscs []inscriptions.Inscription) ([]script.Op, error) {
	var ops []script.Op

	for _, insc := range inscs {
		entries, err := inscriptions.EncodeTags(insc.Tags)
		if err != nil {
			return nil, err
		}

		ops = append(ops, script.Zero(), script.OpName("IF"), script.Bytes([]byte(script.ProtocolID)))
		for _, e := range entries {
			ops = append(ops, script.Bytes([]byte{byte(e.Tag)}), script.Bytes(e.Data))
		}

		ops = append(ops, script.Zero())
		for _, chunk := range bodyChunks(insc.Body) {
			ops = append(ops, script.Bytes(chunk))
		}

		ops = append(ops, script.OpName("ENDIF"))
	}

	return ops, nil
}

// bodyChunks splits body into script.MaxScriptElementSize-sized pushes;
// an empty body still produces zero data pushes (only the OP_0 separator
// the caller already emitted).
func bodyChunks(body []byte) [][]byte {
	if len(body) == 0 {
		return nil
	}

	chunks := make([][]byte, 0, (len(body)/script.MaxScriptElementSize)+1)
	for start := 0; start < len(body); start += script.MaxScriptElementSize {
		end := start + script.MaxScriptElementSize
		if end > len(body) {
			end = len(body)
		}
		chunks = append(chunks, body[start:end])
	}

	return chunks
}
