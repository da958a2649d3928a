// Copyright (C) 2024 Creditor Corp. Group.
// See LICENSE for copying information.

// Package reveal builds and recognizes the Taproot leaf script an ordinals
// reveal transaction spends: `<pubkey> OP_CHECKSIG` followed by one
// envelope per inscription, and the custom-script adapter
// (recognize/emit/finalize) the host's Taproot machinery dispatches
// through to sign and spend it.
package reveal

import (
	"bytes"
	"errors"

	"ordlib/bitcoin/ord/envelope"
	"ordlib/bitcoin/ord/inscriptions"
	"ordlib/bitcoin/ord/script"
)

// RevealScriptType identifies a P2TROrdReveal leaf script to a
// custom-script dispatch table.
const RevealScriptType = "tr_ord_reveal"

// ErrWrongSignatureCount defines that a reveal input was given anything
// other than exactly one signature. FinalizeTaproot does not return it; it
// reports that case as (nil, false).
var ErrWrongSignatureCount = errors.New("reveal input requires exactly one signature")

// RevealScript is a built Taproot leaf script along with the
// custom-script type it should be dispatched as.
type RevealScript struct {
	Type   string
	Script []byte
}

// RevealDescriptor is what Recognize yields from an on-chain leaf script:
// the internal key the envelope was signed with, and the inscriptions it
// carries.
type RevealDescriptor struct {
	Pubkey       [32]byte
	Inscriptions []inscriptions.Inscription
}

// P2TROrdReveal builds the reveal leaf script for pubkey carrying incs, in
// order: `<pubkey> OP_CHECKSIG` followed by one envelope per inscription.
func P2TROrdReveal(pubkey [32]byte, incs []inscriptions.Inscription) (RevealScript, error) {
	scriptBytes, err := buildRevealScript(pubkey, incs)
	if err != nil {
		return RevealScript{}, err
	}

	return RevealScript{Type: RevealScriptType, Script: scriptBytes}, nil
}

func buildRevealScript(pubkey [32]byte, incs []inscriptions.Inscription) ([]byte, error) {
	ops := []script.Op{script.Bytes(pubkey[:]), script.OpName("CHECKSIG")}

	envOps, err := envelope.EncodeInscriptions(incs)
	if err != nil {
		return nil, err
	}
	ops = append(ops, envOps...)

	return script.EncodeScript(ops)
}

// OutOrdinalReveal is the stateless custom-script adapter a Taproot
// script-path dispatcher binds P2TROrdReveal leaves to.
type OutOrdinalReveal struct{}

// Recognize runs strict-mode envelope parsing over scriptBytes. It never
// panics or returns an error: on any mismatch it returns (nil, false) so
// the caller's dispatch table can try the next recognizer.
func (OutOrdinalReveal) Recognize(scriptBytes []byte) (*RevealDescriptor, bool) {
	ops, err := script.DecodeScript(scriptBytes)
	if err != nil || len(ops) < 2 || !ops[0].IsBytes() || len(ops[0].Data) != 32 {
		return nil, false
	}

	incs, ok := envelope.ParseInscriptions(scriptBytes, true)
	if !ok {
		return nil, false
	}

	var pubkey [32]byte
	copy(pubkey[:], ops[0].Data)

	return &RevealDescriptor{Pubkey: pubkey, Inscriptions: incs}, true
}

// Emit is the inverse of Recognize, built on P2TROrdReveal.
func (OutOrdinalReveal) Emit(desc RevealDescriptor) ([]byte, error) {
	revealScript, err := P2TROrdReveal(desc.Pubkey, desc.Inscriptions)
	if err != nil {
		return nil, err
	}

	return revealScript.Script, nil
}

// FinalizeTaproot builds the witness stack for a script-path spend of
// leafScript: exactly one signature, whose associated public key
// byte-equals desc.Pubkey, is required. The control block is appended by
// the host, not here. Any mismatch returns (nil, false) rather than an
// error, matching Recognize's never-raise contract at this boundary.
func (OutOrdinalReveal) FinalizeTaproot(leafScript []byte, desc RevealDescriptor, sigs [][]byte, pubkeys [][]byte) ([][]byte, bool) {
	if len(sigs) != 1 || len(pubkeys) != 1 {
		return nil, false
	}

	if !bytes.Equal(pubkeys[0], desc.Pubkey[:]) {
		return nil, false
	}

	return [][]byte{sigs[0], leafScript}, true
}
