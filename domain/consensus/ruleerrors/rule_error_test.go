package ruleerrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/sedlynet/sedlyd/domain/consensus/model/externalapi"
)

func TestNewErrMissingTxOut(t *testing.T) {
	outer := NewErrMissingTxOut([]*externalapi.DomainOutpoint{{
		TransactionID: *externalapi.NewDomainTransactionIDFromByteArray(&[externalapi.DomainHashSize]byte{255, 255, 255}),
		Index:         5,
	}})
	expectedOuterErr := "ErrUnknownOutpoint: missing the following outpoint: " +
		"[(ffffff0000000000000000000000000000000000000000000000000000000000: 5)]"
	inner := &ErrMissingTxOut{}
	if !errors.As(outer, inner) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain ErrMissingTxOut in it")
	}

	if len(inner.MissingOutpoints) != 1 {
		t.Fatalf("TestNewErrMissingTxOut: Expected len(inner.MissingOutpoints) 1, found: %d", len(inner.MissingOutpoints))
	}
	if inner.MissingOutpoints[0].Index != 5 {
		t.Fatalf("TestNewErrMissingTxOut: Expected 5. found: %d", inner.MissingOutpoints[0].Index)
	}

	rule := &RuleError{}
	if !errors.As(outer, rule) {
		t.Fatal("TestNewErrMissingTxOut: Outer should contain RuleError in it")
	}
	if rule.message != "ErrUnknownOutpoint" {
		t.Fatalf("TestNewErrMissingTxOut: Expected message = 'ErrUnknownOutpoint', found: '%s'", rule.message)
	}
	if !errors.Is(outer, ErrUnknownOutpoint) {
		t.Fatal("TestNewErrMissingTxOut: outer should match ErrUnknownOutpoint")
	}
	if errors.Is(outer, ErrIntraBlockDoubleSpend) {
		t.Fatal("TestNewErrMissingTxOut: outer should not match ErrIntraBlockDoubleSpend")
	}

	if outer.Error() != expectedOuterErr {
		t.Fatalf("TestNewErrMissingTxOut: Expected %s. found: %s", expectedOuterErr, outer.Error())
	}
}

func TestMalformedTransactionFamily(t *testing.T) {
	err := errors.Wrapf(ErrNoTxInputs, "transaction %d has no inputs", 3)
	if !errors.Is(err, ErrNoTxInputs) {
		t.Fatal("TestMalformedTransactionFamily: expected ErrNoTxInputs")
	}
	if !errors.Is(err, ErrMalformedTransaction) {
		t.Fatal("TestMalformedTransactionFamily: ErrNoTxInputs should be reported as ErrMalformedTransaction")
	}
	if errors.Is(err, ErrNoTxOutputs) {
		t.Fatal("TestMalformedTransactionFamily: ErrNoTxInputs should not match ErrNoTxOutputs")
	}
	reason, ok := Reason(err)
	if !ok || reason != "ErrNoTxInputs" {
		t.Fatalf("TestMalformedTransactionFamily: unexpected reason %q", reason)
	}
}

func TestMissingParentIsWrongPreviousHash(t *testing.T) {
	err := NewErrMissingParent(externalapi.NewZeroHash())
	if !errors.Is(err, ErrWrongPreviousHash) {
		t.Fatal("TestMissingParentIsWrongPreviousHash: expected ErrWrongPreviousHash")
	}
	missing := ErrMissingParent{}
	if !errors.As(err, &missing) || !missing.MissingParentHash.IsZero() {
		t.Fatal("TestMissingParentIsWrongPreviousHash: expected the missing hash to be recoverable")
	}

	if _, ok := Reason(errors.New("disk on fire")); ok {
		t.Fatal("TestMissingParentIsWrongPreviousHash: a plain error has no rule reason")
	}
}
