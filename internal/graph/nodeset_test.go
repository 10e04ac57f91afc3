package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeSet_FingerprintIgnoresOrderAndDuplicates(t *testing.T) {
	a := NodeSet{"f3", "f1"}
	b := NodeSet{"f1", "f3", "f1"}
	c := NodeSet{"f1"}

	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
}

func TestNodeSet_EmptyFingerprint(t *testing.T) {
	assert.Equal(t, Fingerprint(""), NodeSet(nil).Fingerprint())
	assert.Equal(t, NodeSet{}.Fingerprint(), NodeSet(nil).Fingerprint())
	assert.Equal(t, "{}", NodeSet{}.Fingerprint().String())
	assert.Equal(t, "{f1,f3}", NodeSet{"f3", "f1"}.Fingerprint().String())
}

func TestNodeSet_Features(t *testing.T) {
	ns := NodeSet{"f10", "f2", "y", "f2"}
	assert.Equal(t, []int{2, 10}, ns.Features())
}

func TestNodeSet_CanonicalDoesNotMutate(t *testing.T) {
	ns := NodeSet{"f3", "f1", "f3"}
	_ = ns.Canonical()
	assert.Equal(t, NodeSet{"f3", "f1", "f3"}, ns)
}
