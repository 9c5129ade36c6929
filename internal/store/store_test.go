package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestParentPath(t *testing.T) {
	require.Equal(t, "artifacts/t/users/u/plans", ParentPath("artifacts/t/users/u/plans/p-1"))
	require.Equal(t, "a", ParentPath("a/b"))
	require.Equal(t, "", ParentPath("root"))
}

func TestDocumentKey(t *testing.T) {
	d := Document{Path: "artifacts/t/users/u/plans/p-1"}
	require.Equal(t, "p-1", d.Key())
}

func TestDocumentDecode(t *testing.T) {
	type payload struct {
		Name string `bson:"name"`
	}
	data, err := bson.Marshal(payload{Name: "x"})
	require.NoError(t, err)

	var out payload
	require.NoError(t, Document{Path: "a/b", Data: data}.Decode(&out))
	require.Equal(t, "x", out.Name)
}
