package dtree

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CVDpl/go-acctidx/pkg/acctidx/account"
)

func acct(disc int) account.Account {
	return account.MustNew("user", disc, false, "", "")
}

func insertAll(t *testing.T, tree *Tree, discs ...int) {
	t.Helper()
	for _, d := range discs {
		require.True(t, tree.Insert(acct(d)), "insert %d", d)
	}
}

func TestEmptyTree(t *testing.T) {
	tree := New()
	assert.Nil(t, tree.Root())
	assert.Equal(t, 0, tree.CountLive())
	assert.Equal(t, 0, tree.Size())
	assert.Equal(t, "", tree.Username())
	assert.Nil(t, tree.Retrieve(1))

	_, ok := tree.Remove(1)
	assert.False(t, ok)
	require.NoError(t, tree.Verify())
}

func TestInsertAndRemoveRoot(t *testing.T) {
	tree := New()
	insertAll(t, tree, 1)
	require.NotNil(t, tree.Root())
	assert.Equal(t, 1, tree.CountLive())
	assert.Equal(t, 0, tree.Root().VacantCount())

	_, ok := tree.Remove(0)
	assert.False(t, ok)

	removed, ok := tree.Remove(1)
	require.True(t, ok)
	assert.Equal(t, 1, removed.Discriminator())
	assert.Equal(t, 0, tree.CountLive())
	assert.Equal(t, 1, tree.Root().VacantCount())
	assert.True(t, tree.Root().Vacant())

	_, ok = tree.Remove(1)
	assert.False(t, ok, "already vacant")
	_, ok = tree.Remove(0)
	assert.False(t, ok)
}

func TestVacantRootIsReused(t *testing.T) {
	tree := New()
	insertAll(t, tree, 1)
	_, ok := tree.Remove(1)
	require.True(t, ok)

	insertAll(t, tree, 7)
	assert.Equal(t, 1, tree.Size())
	assert.Equal(t, 0, tree.VacantCount())
	assert.Equal(t, 7, tree.Root().Discriminator())
}

func TestInsertChildren(t *testing.T) {
	tree := New()
	insertAll(t, tree, 1, 0)
	assert.Equal(t, 2, tree.CountLive())
	assert.Nil(t, tree.Root().Right())
	require.NotNil(t, tree.Root().Left())
	assert.Equal(t, 1, tree.Root().Left().Size())
	assert.Equal(t, 0, tree.Root().Left().VacantCount())

	insertAll(t, tree, 2)
	require.NotNil(t, tree.Root().Right())
	assert.Equal(t, 3, tree.CountLive())
	assert.Equal(t, 3, tree.Len())
	assert.Equal(t, 1, tree.Root().Left().Size())
	assert.Equal(t, 1, tree.Root().Right().Size())
}

func TestInsertRejects(t *testing.T) {
	tree := New()
	insertAll(t, tree, 5)

	assert.False(t, tree.Insert(acct(5)), "duplicate live discriminator")
	assert.False(t, tree.Insert(account.Empty()), "invalid discriminator")
	assert.Equal(t, 1, tree.CountLive())
}

func TestSmallSkewDoesNotRebuild(t *testing.T) {
	tree := New()
	insertAll(t, tree, 5, 3, 7, 2, 1, 6, 8)

	assert.Equal(t, 7, tree.CountLive())
	assert.Equal(t, 0, tree.Rebuilds())
	assert.Equal(t, 5, tree.Root().Discriminator())
	assert.Equal(t, 3, tree.Root().Left().Size())
	assert.Equal(t, 3, tree.Root().Right().Size())
	require.NoError(t, tree.Verify())
}

func TestAscendingInsertRebuilds(t *testing.T) {
	tree := New()
	for d := 1; d <= 12; d++ {
		insertAll(t, tree, d)
	}
	assert.Equal(t, 12, tree.CountLive())
	assert.GreaterOrEqual(t, tree.Rebuilds(), 1)
	require.NoError(t, tree.Verify())
}

func TestDescendingInsertRebuildsAtRoot(t *testing.T) {
	tree := New()
	insertAll(t, tree, 5, 4, 3, 2)
	assert.Equal(t, 0, tree.Rebuilds())

	// left side reaches four slots against an empty right side
	insertAll(t, tree, 1)
	assert.Equal(t, 1, tree.Rebuilds())
	assert.Equal(t, 3, tree.Root().Discriminator())
	assert.Equal(t, 1, tree.Root().Left().Discriminator())
	assert.Equal(t, 2, tree.Root().Left().Right().Discriminator())
	assert.Equal(t, 4, tree.Root().Right().Discriminator())
	assert.Equal(t, 5, tree.Root().Right().Right().Discriminator())

	for d := 6; d <= 12; d++ {
		insertAll(t, tree, d)
	}
	assert.Equal(t, 12, tree.CountLive())
	require.NoError(t, tree.Verify())
}

func TestRebuildDeeperSubtree(t *testing.T) {
	tree := New()
	insertAll(t, tree, 13, 5, 14, 4, 3, 2, 1, 6, 7, 8, 9, 10, 11, 12)
	assert.Equal(t, 14, tree.CountLive())
	require.NoError(t, tree.Verify())
}

func TestVacancyReuse(t *testing.T) {
	tree := New()
	insertAll(t, tree, 4, 2, 6, 1, 3, 5, 7)

	removed, ok := tree.Remove(2)
	require.True(t, ok)
	assert.Equal(t, 2, removed.Discriminator())
	assert.Equal(t, 6, tree.CountLive())
	assert.Equal(t, 1, tree.Root().VacantCount())

	insertAll(t, tree, 2)
	assert.Equal(t, 7, tree.CountLive())
	assert.Equal(t, 0, tree.Root().VacantCount())
	assert.Equal(t, 7, tree.Size())

	_, ok = tree.Remove(2)
	require.True(t, ok)
	_, ok = tree.Remove(1)
	require.True(t, ok)
	assert.Equal(t, 5, tree.CountLive())
	assert.Equal(t, 2, tree.Root().VacantCount())

	// 1 does not fit the vacant 2 slot (its left subtree holds 1), so it
	// descends into the vacant 1 slot instead
	insertAll(t, tree, 1)
	assert.Equal(t, 6, tree.CountLive())
	assert.Equal(t, 1, tree.Root().VacantCount())
	assert.True(t, tree.Root().Left().Vacant())

	insertAll(t, tree, 2)
	assert.Equal(t, 7, tree.CountLive())
	assert.Equal(t, 0, tree.Root().VacantCount())
	assert.Equal(t, 7, tree.Size())
	require.NoError(t, tree.Verify())
}

func TestVacancyReuseWithNewDiscriminator(t *testing.T) {
	tree := New()
	insertAll(t, tree, 40, 20, 60, 10, 30, 50, 70)
	_, ok := tree.Remove(20)
	require.True(t, ok)

	insertAll(t, tree, 25)
	assert.Equal(t, 7, tree.Size())
	assert.Equal(t, 0, tree.VacantCount())
	assert.Equal(t, 25, tree.Root().Left().Discriminator())
	assert.Nil(t, tree.Retrieve(20))
	assert.NotNil(t, tree.Retrieve(25))
	require.NoError(t, tree.Verify())
}

func TestVacancySkippedWhenOutOfOrder(t *testing.T) {
	tree := New()
	insertAll(t, tree, 40, 20, 60, 10, 30, 50, 70)
	_, ok := tree.Remove(20)
	require.True(t, ok)

	// 35 is not below the vacant node's right subtree minimum (30)
	insertAll(t, tree, 35)
	assert.Equal(t, 8, tree.Size())
	assert.Equal(t, 1, tree.VacantCount())
	assert.True(t, tree.Root().Left().Vacant())
	assert.Equal(t, 35, tree.Root().Left().Right().Right().Discriminator())
	require.NoError(t, tree.Verify())
}

func TestVacantRetrieveKeepsOrder(t *testing.T) {
	tree := New()
	insertAll(t, tree, 1, 0)
	_, ok := tree.Remove(0)
	require.True(t, ok)

	assert.Equal(t, 1, tree.CountLive())
	assert.Nil(t, tree.Retrieve(0))
	assert.Equal(t, 2, tree.Root().Size())
	assert.Equal(t, 1, tree.Root().VacantCount())
	require.NoError(t, tree.Verify())
}

func TestRebuildDropsVacancies(t *testing.T) {
	tree := New()
	insertAll(t, tree, 50, 25, 75, 10, 30, 60, 90, 5, 15, 27, 35)
	for _, d := range []int{25, 5, 90} {
		_, ok := tree.Remove(d)
		require.True(t, ok)
	}
	live := tree.CountLive()

	tree.root = tree.rebuild(tree.root)

	assert.Equal(t, 0, tree.Root().VacantCount())
	assert.Equal(t, live, tree.Size())
	assert.Equal(t, live, tree.CountLive())
	tree.Walk(func(n *Node) bool {
		diff := sizeOf(n.left) - sizeOf(n.right)
		assert.LessOrEqual(t, diff, 1, "disc %d", n.Discriminator())
		assert.GreaterOrEqual(t, diff, -1, "disc %d", n.Discriminator())
		return true
	})
	require.NoError(t, tree.Verify())
}

func TestRebuildPicksLowerMiddle(t *testing.T) {
	tree := New()
	insertAll(t, tree, 1, 2, 3)
	tree.root = tree.rebuild(tree.root)
	assert.Equal(t, 2, tree.Root().Discriminator())

	tree = New()
	insertAll(t, tree, 1, 2, 3, 4)
	tree.root = tree.rebuild(tree.root)
	assert.Equal(t, 2, tree.Root().Discriminator())
	assert.Equal(t, 3, tree.Root().Right().Discriminator())
}

func TestRebuildHook(t *testing.T) {
	tree := New()
	var calls []int
	tree.SetRebuildHook(func(username string, live int) {
		assert.Equal(t, "user", username)
		calls = append(calls, live)
	})
	insertAll(t, tree, 5, 4, 3, 2, 1)
	require.Equal(t, []int{5}, calls)
}

func TestAscendSkipsVacant(t *testing.T) {
	tree := New()
	insertAll(t, tree, 4, 2, 6, 1, 3)
	_, ok := tree.Remove(2)
	require.True(t, ok)

	var got []int
	tree.Ascend(func(a account.Account) bool {
		got = append(got, a.Discriminator())
		return true
	})
	assert.Equal(t, []int{1, 3, 4, 6}, got)

	got = got[:0]
	tree.Ascend(func(a account.Account) bool {
		got = append(got, a.Discriminator())
		return len(got) < 2
	})
	assert.Equal(t, []int{1, 3}, got)
}

type slot struct {
	disc, size, vacantCount int
	vacant                  bool
}

func slots(tree *Tree) []slot {
	var out []slot
	tree.Walk(func(n *Node) bool {
		out = append(out, slot{n.Discriminator(), n.Size(), n.VacantCount(), n.Vacant()})
		return true
	})
	return out
}

func TestCloneIsDeep(t *testing.T) {
	tree := New()
	insertAll(t, tree, 8, 4, 12, 2, 6, 10, 14)
	_, ok := tree.Remove(4)
	require.True(t, ok)

	cp := tree.Clone()
	assert.Equal(t, slots(tree), slots(cp))

	orig := map[*Node]bool{}
	tree.Walk(func(n *Node) bool { orig[n] = true; return true })
	cp.Walk(func(n *Node) bool {
		assert.False(t, orig[n], "node %d shared", n.Discriminator())
		return true
	})

	require.True(t, cp.Insert(acct(4)))
	assert.Nil(t, tree.Retrieve(4))
	assert.Equal(t, 1, tree.VacantCount())
	assert.Equal(t, 0, cp.VacantCount())
}

func TestClear(t *testing.T) {
	tree := New()
	insertAll(t, tree, 1, 2, 3)
	tree.Clear()
	assert.Nil(t, tree.Root())
	assert.Equal(t, 0, tree.CountLive())
}

func TestVerifyDetectsCorruption(t *testing.T) {
	tree := New()
	insertAll(t, tree, 2, 1, 3)
	tree.root.size = 7
	assert.Error(t, tree.Verify())

	tree = New()
	insertAll(t, tree, 2, 1, 3)
	tree.root.left, tree.root.right = tree.root.right, tree.root.left
	assert.Error(t, tree.Verify())
}

func TestRandomWorkload(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tree := New()
	live := map[int]bool{}

	for i := 0; i < 5000; i++ {
		d := rng.Intn(500)
		if rng.Intn(3) == 0 {
			_, ok := tree.Remove(d)
			assert.Equal(t, live[d], ok, "remove %d", d)
			delete(live, d)
		} else {
			ok := tree.Insert(acct(d))
			assert.Equal(t, !live[d], ok, "insert %d", d)
			live[d] = true
		}
		if i%250 == 0 {
			require.NoError(t, tree.Verify())
		}
	}

	require.NoError(t, tree.Verify())
	assert.Equal(t, len(live), tree.CountLive())
	for d := 0; d < 500; d++ {
		assert.Equal(t, live[d], tree.Retrieve(d) != nil, "retrieve %d", d)
	}
}

func BenchmarkInsert(b *testing.B) {
	accts := make([]account.Account, 10000)
	for i := range accts {
		accts[i] = acct(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree := New()
		for _, a := range accts {
			tree.Insert(a)
		}
	}
}
