package ldb

import (
	"encoding/binary"
	"testing"

	"github.com/sedlynet/sedlyd/infrastructure/db/database"
	"github.com/stretchr/testify/require"
)

func openCursorTestDB(t *testing.T) *LevelDB {
	ldb, err := NewLevelDB(t.TempDir(), 8)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, ldb.Close())
	})
	return ldb
}

func heightSuffix(height uint64) []byte {
	suffix := make([]byte, 8)
	binary.BigEndian.PutUint64(suffix, height)
	return suffix
}

// fillBuckets writes count entries into bucket and one entry into each of
// its neighbours, so that a cursor leaking out of its prefix is noticed.
func fillBuckets(t *testing.T, ldb *LevelDB, bucket *database.Bucket, count uint64) {
	require.NoError(t, ldb.Put(database.MakeBucket([]byte("index-")).Key([]byte("before")), []byte("x")))
	require.NoError(t, ldb.Put(database.MakeBucket([]byte("indexes")).Key([]byte("after")), []byte("y")))
	for height := uint64(0); height < count; height++ {
		require.NoError(t, ldb.Put(bucket.Key(heightSuffix(height)), heightSuffix(height*10)))
	}
}

func TestCursorWalksOnlyItsBucket(t *testing.T) {
	ldb := openCursorTestDB(t)
	bucket := database.MakeBucket([]byte("index"))
	fillBuckets(t, ldb, bucket, 5)

	cursor, err := ldb.Cursor(bucket)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, cursor.Close())
	}()

	var heights []uint64
	for ok := cursor.First(); ok; ok = cursor.Next() {
		key, err := cursor.Key()
		require.NoError(t, err)
		require.Equal(t, bucket.Path(), key.Bucket().Path())
		value, err := cursor.Value()
		require.NoError(t, err)

		height := binary.BigEndian.Uint64(key.Suffix())
		require.Equal(t, height*10, binary.BigEndian.Uint64(value))
		heights = append(heights, height)
	}
	require.Equal(t, []uint64{0, 1, 2, 3, 4}, heights)

	_, err = cursor.Key()
	require.True(t, database.IsNotFoundError(err))
	_, err = cursor.Value()
	require.True(t, database.IsNotFoundError(err))
}

func TestCursorOnEmptyBucket(t *testing.T) {
	ldb := openCursorTestDB(t)
	fillBuckets(t, ldb, database.MakeBucket([]byte("index")), 3)

	cursor, err := ldb.Cursor(database.MakeBucket([]byte("empty")))
	require.NoError(t, err)
	require.False(t, cursor.First())
	_, err = cursor.Key()
	require.True(t, database.IsNotFoundError(err))
	require.NoError(t, cursor.Close())
}

func TestCursorSeek(t *testing.T) {
	ldb := openCursorTestDB(t)
	bucket := database.MakeBucket([]byte("index"))
	fillBuckets(t, ldb, bucket, 5)

	cursor, err := ldb.Cursor(bucket)
	require.NoError(t, err)
	defer func() {
		require.NoError(t, cursor.Close())
	}()

	require.NoError(t, cursor.Seek(bucket.Key(heightSuffix(3))))
	value, err := cursor.Value()
	require.NoError(t, err)
	require.Equal(t, heightSuffix(30), value)

	// Seeking continues from the found key.
	require.True(t, cursor.Next())
	key, err := cursor.Key()
	require.NoError(t, err)
	require.Equal(t, heightSuffix(4), key.Suffix())
	require.False(t, cursor.Next())

	err = cursor.Seek(bucket.Key(heightSuffix(7)))
	require.True(t, database.IsNotFoundError(err))

	// A key outside the bucket is never found, even if it exists.
	err = cursor.Seek(database.MakeBucket([]byte("index-")).Key([]byte("before")))
	require.True(t, database.IsNotFoundError(err))
}

func TestClosedCursor(t *testing.T) {
	ldb := openCursorTestDB(t)
	bucket := database.MakeBucket([]byte("index"))
	fillBuckets(t, ldb, bucket, 2)

	cursor, err := ldb.Cursor(bucket)
	require.NoError(t, err)
	require.NoError(t, cursor.Close())

	require.ErrorContains(t, cursor.Seek(bucket.Key(heightSuffix(0))), "closed cursor")
	_, err = cursor.Key()
	require.ErrorContains(t, err, "closed cursor")
	_, err = cursor.Value()
	require.ErrorContains(t, err, "closed cursor")
	require.ErrorContains(t, cursor.Close(), "closed cursor")

	require.PanicsWithValue(t, "cannot call first on a closed cursor", func() { cursor.First() })
	require.PanicsWithValue(t, "cannot call next on a closed cursor", func() { cursor.Next() })
}
