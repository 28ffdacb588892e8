package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestInsertTransactionIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	tx1, err := s.InsertTransaction("osmosis-1", 100, "ABCD", "memo-1")
	require.NoError(t, err)

	tx2, err := s.InsertTransaction("osmosis-1", 100, "ABCD", "memo-1")
	require.NoError(t, err)

	assert.Equal(t, tx1.ID, tx2.ID)
}

func TestInsertPacketAndFindPacket(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.InsertTransaction("osmosis-1", 100, "HASH1", "")
	require.NoError(t, err)

	existing, err := s.FindPacket("channel-0", "transfer", "channel-1", "transfer", 1, "/ibc.core.channel.v1.MsgRecvPacket")
	require.NoError(t, err)
	assert.Nil(t, existing)

	err = s.InsertPacket(NewPacket{
		TxID:       tx.ID,
		Sequence:   1,
		SrcChannel: "channel-0",
		SrcPort:    "transfer",
		DstChannel: "channel-1",
		DstPort:    "transfer",
		MsgTypeURL: "/ibc.core.channel.v1.MsgRecvPacket",
		Signer:     "relayer1",
		Effected:   true,
		IBCVersion: "v1",
	})
	require.NoError(t, err)

	found, err := s.FindPacket("channel-0", "transfer", "channel-1", "transfer", 1, "/ibc.core.channel.v1.MsgRecvPacket")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, tx.ID, found.TxID)
	assert.True(t, found.Effected)
}

func TestFindPacketFrontrunClassification(t *testing.T) {
	s := newTestStore(t)

	tx1, err := s.InsertTransaction("osmosis-1", 100, "HASH1", "")
	require.NoError(t, err)

	err = s.InsertPacket(NewPacket{
		TxID: tx1.ID, Sequence: 1, SrcChannel: "channel-0", SrcPort: "transfer",
		DstChannel: "channel-1", DstPort: "transfer",
		MsgTypeURL: "/ibc.core.channel.v1.MsgRecvPacket", Signer: "relayer1",
		Effected: true, IBCVersion: "v1",
	})
	require.NoError(t, err)

	existing, err := s.FindPacket("channel-0", "transfer", "channel-1", "transfer", 1, "/ibc.core.channel.v1.MsgRecvPacket")
	require.NoError(t, err)
	require.NotNil(t, existing)

	tx2, err := s.InsertTransaction("osmosis-1", 101, "HASH2", "")
	require.NoError(t, err)

	err = s.InsertPacket(NewPacket{
		TxID: tx2.ID, Sequence: 1, SrcChannel: "channel-0", SrcPort: "transfer",
		DstChannel: "channel-1", DstPort: "transfer",
		MsgTypeURL: "/ibc.core.channel.v1.MsgRecvPacket", Signer: "relayer2",
		Effected: false, EffectedSigner: &existing.Signer, EffectedTx: &existing.TxID,
		IBCVersion: "v1",
	})
	require.NoError(t, err)

	byUser, err := s.PacketsByUser("relayer2", "sender", 100, 0)
	require.NoError(t, err)
	assert.Empty(t, byUser) // relayer2 is a signer, not a sender/receiver
}

func TestUpdateSendPacketEffected(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.InsertTransaction("osmosis-1", 100, "HASH1", "")
	require.NoError(t, err)

	err = s.InsertPacket(NewPacket{
		TxID: tx.ID, Sequence: 5, SrcChannel: "channel-0", SrcPort: "transfer",
		DstChannel: "channel-1", DstPort: "transfer",
		MsgTypeURL: "send_packet", Signer: "", Effected: false, IBCVersion: "v1",
	})
	require.NoError(t, err)

	ackTx, err := s.InsertTransaction("osmosis-1", 105, "HASH2", "")
	require.NoError(t, err)

	err = s.UpdateSendPacketEffected("channel-0", "channel-1", 5, ackTx.ID, "send_packet")
	require.NoError(t, err)

	found, err := s.FindPacket("channel-0", "transfer", "channel-1", "transfer", 5, "send_packet")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, found.Effected)
	require.NotNil(t, found.EffectedTx)
	assert.Equal(t, ackTx.ID, *found.EffectedTx)
}

func TestStuckGroupsOnlyCountsUneffected(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.InsertTransaction("osmosis-1", 100, "HASH1", "")
	require.NoError(t, err)

	err = s.InsertPacket(NewPacket{
		TxID: tx.ID, Sequence: 1, SrcChannel: "channel-0", SrcPort: "transfer",
		DstChannel: "channel-1", DstPort: "transfer",
		MsgTypeURL: "send_packet", Signer: "", Effected: false, IBCVersion: "v1",
	})
	require.NoError(t, err)

	groups, err := s.StuckGroups(-1) // negative threshold: everything counts as "older"
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "osmosis-1", groups[0].Chain)
	assert.Equal(t, int64(1), groups[0].Count)
	assert.False(t, groups[0].HasUserData)
}

func TestStuckGroupsHasUserDataTrueWhenAnyRowHasSender(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.InsertTransaction("osmosis-1", 100, "HASH1", "")
	require.NoError(t, err)

	sender := "osmo1abc"
	err = s.InsertPacket(NewPacket{
		TxID: tx.ID, Sequence: 1, SrcChannel: "channel-0", SrcPort: "transfer",
		DstChannel: "channel-1", DstPort: "transfer",
		MsgTypeURL: "send_packet", Signer: "", Effected: false, IBCVersion: "v1",
		Sender: &sender,
	})
	require.NoError(t, err)

	groups, err := s.StuckGroups(-1)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.True(t, groups[0].HasUserData)
}

func TestTimeoutGroupsSplitsExpiringAndExpired(t *testing.T) {
	s := newTestStore(t)

	tx, err := s.InsertTransaction("osmosis-1", 100, "HASH1", "")
	require.NoError(t, err)

	// timeout far in the future: beyond a 1-hour near-window, so neither
	// "expiring" nor "expired"
	future := int64(4102444800000000000) // year ~2100 in ns
	err = s.InsertPacket(NewPacket{
		TxID: tx.ID, Sequence: 1, SrcChannel: "channel-0", SrcPort: "transfer",
		DstChannel: "channel-1", DstPort: "transfer",
		MsgTypeURL: "/ibc.core.channel.v1.MsgRecvPacket", Signer: "relayer",
		Effected: false, IBCVersion: "v1", TimeoutTimestamp: &future,
	})
	require.NoError(t, err)

	// timeout far in the past: "expired"
	past := int64(1)
	err = s.InsertPacket(NewPacket{
		TxID: tx.ID, Sequence: 2, SrcChannel: "channel-0", SrcPort: "transfer",
		DstChannel: "channel-1", DstPort: "transfer",
		MsgTypeURL: "/ibc.core.channel.v1.MsgRecvPacket", Signer: "relayer",
		Effected: false, IBCVersion: "v1", TimeoutTimestamp: &past,
	})
	require.NoError(t, err)

	groups, err := s.TimeoutGroups(3600)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, int64(1), groups[0].ExpiredCount)
	assert.Equal(t, int64(0), groups[0].ExpiringCount) // far future row is outside the 1h window
}

func TestDuplicatePacketsGroupsByDataHash(t *testing.T) {
	s := newTestStore(t)

	tx1, err := s.InsertTransaction("osmosis-1", 100, "HASH1", "")
	require.NoError(t, err)
	tx2, err := s.InsertTransaction("cosmoshub-4", 200, "HASH2", "")
	require.NoError(t, err)

	hash := "DEADBEEF"
	for i, tx := range []*Transaction{tx1, tx2} {
		err = s.InsertPacket(NewPacket{
			TxID: tx.ID, Sequence: int64(i + 1), SrcChannel: "channel-0", SrcPort: "transfer",
			DstChannel: "channel-1", DstPort: "transfer",
			MsgTypeURL: "/ibc.core.channel.v1.MsgRecvPacket", Signer: "relayer",
			Effected: true, IBCVersion: "v1", DataHash: &hash,
		})
		require.NoError(t, err)
	}

	dupes, err := s.DuplicatePackets(10)
	require.NoError(t, err)
	require.Len(t, dupes, 1)
	assert.Equal(t, hash, dupes[0].DataHash)
	assert.Equal(t, int64(2), dupes[0].Count)
}
