// Package collector ingests new blocks from a single chain endpoint,
// decoding transactions into IBC messages and correlating packets into the
// store until the subscription ends.
package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/cordtus/chainpulse-go/pkg/chainclient"
	"github.com/cordtus/chainpulse-go/pkg/config"
	"github.com/cordtus/chainpulse-go/pkg/ibcmsg"
	"github.com/cordtus/chainpulse-go/pkg/metrics"
	"github.com/cordtus/chainpulse-go/pkg/store"
)

const (
	blockTimeout = 60 * time.Second
	blockCeiling = 100
)

// Outcome is the non-error reason a collector iteration ended. A nil error
// paired with an Outcome is an expected, clean end of iteration; a non-nil
// error is a client-construction, transport, or store failure, or the
// context's own error once ctx is done.
type Outcome string

const (
	OutcomeTimeout      Outcome = "timeout"
	OutcomeDisconnect   Outcome = "disconnect"
	OutcomeBlockElapsed Outcome = "block_elapsed"
)

// Collector is a single chain's ingest worker: one subscription, one
// connection, one correlation pass over every block it observes.
type Collector struct {
	chain   config.ChainConfig
	store   *store.Store
	metrics *metrics.Metrics
}

// New returns a Collector for the given chain endpoint.
func New(chain config.ChainConfig, st *store.Store, m *metrics.Metrics) *Collector {
	return &Collector{chain: chain, store: st, metrics: m}
}

// Run subscribes to new blocks and processes them until the stream times
// out after blockTimeout, is deliberately rotated after blockCeiling
// blocks, or the subscription closes outright. The supervisor restarts the
// collector on every return, error or not, unless the error is a context
// cancellation or deadline.
func (c *Collector) Run(ctx context.Context) (Outcome, error) {
	var auth *chainclient.BasicAuth
	if c.chain.HasAuth() {
		auth = &chainclient.BasicAuth{Username: c.chain.Username, Password: c.chain.Password}
	}

	client, err := chainclient.NewClient(c.chain.URL, c.chain.CometVersion, auth)
	if err != nil {
		return "", fmt.Errorf("collector %s: build client: %w", c.chain.ChainID, err)
	}
	defer client.Close()

	slog.Info("subscribing to new blocks", "chain_id", c.chain.ChainID)
	events, errs, err := client.SubscribeBlocks(ctx)
	if err != nil {
		return "", fmt.Errorf("collector %s: subscribe: %w", c.chain.ChainID, err)
	}

	slog.Info("waiting for new blocks", "chain_id", c.chain.ChainID)

	timer := time.NewTimer(blockTimeout)
	defer timer.Stop()

	var count int
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()

		case err, ok := <-errs:
			if ok {
				return "", fmt.Errorf("collector %s: %w", c.chain.ChainID, err)
			}
			return OutcomeDisconnect, nil

		case block, ok := <-events:
			if !ok {
				// close(errs) always runs after any errs <- err send and
				// before close(events) in every dialect's reader goroutine,
				// so a pending transport error is guaranteed visible here.
				select {
				case err, ok2 := <-errs:
					if ok2 {
						return "", fmt.Errorf("collector %s: %w", c.chain.ChainID, err)
					}
				default:
				}
				return OutcomeDisconnect, nil
			}

			if !timer.Stop() {
				<-timer.C
			}
			timer.Reset(blockTimeout)

			slog.Info("new block", "chain_id", c.chain.ChainID, "height", block.Height)
			if err := c.processBlock(ctx, client, block); err != nil {
				return "", fmt.Errorf("collector %s: %w", c.chain.ChainID, err)
			}

			count++
			if count >= blockCeiling {
				return OutcomeBlockElapsed, nil
			}

		case <-timer.C:
			c.metrics.ChainpulseTimeouts(c.chain.ChainID)
			return OutcomeTimeout, nil
		}
	}
}

// processBlock decodes every transaction in block, correlates the IBC
// messages it carries, then — when the dialect supports it — fetches block
// results and folds in the event-derived send/ack/timeout rows.
func (c *Collector) processBlock(ctx context.Context, client chainclient.Client, block chainclient.BlockEvent) error {
	chainID := c.chain.ChainID
	memos := make([]string, len(block.Block.Txs))

	for i, raw := range block.Block.Txs {
		c.metrics.ChainpulseTxs(chainID)

		decoded, err := ibcmsg.DecodeTx(raw)
		if err != nil {
			slog.Warn("failed to decode transaction, skipping", "chain_id", chainID, "error", err)
			continue
		}
		memos[i] = decoded.Memo

		txRow, err := c.store.InsertTransaction(chainID, block.Height, txHashHex(raw), decoded.Memo)
		if err != nil {
			return fmt.Errorf("insert tx: %w", err)
		}

		for _, m := range decoded.Messages {
			msg, err := ibcmsg.Decode(m.TypeURL, m.Value)
			if err != nil {
				slog.Warn("failed to decode message, skipping", "chain_id", chainID, "type_url", m.TypeURL, "error", err)
				continue
			}
			if !msg.IsIBC() || !msg.IsRelevant() {
				continue
			}
			if transfer, ok := msg.(ibcmsg.Transfer); ok {
				c.processTransfer(chainID, txRow, transfer)
				continue
			}
			pkt := msg.Packet()
			if pkt == nil {
				continue
			}
			if err := c.processPacketMsg(chainID, txRow, m.TypeURL, msg, pkt); err != nil {
				return err
			}
		}
	}

	if !client.SupportsEvents() {
		return nil
	}

	results, err := client.GetBlockResults(ctx, block.Height)
	if err != nil {
		slog.Debug("could not fetch block results", "chain_id", chainID, "height", block.Height, "error", err)
		return nil
	}

	for idx, result := range results {
		if idx >= len(block.Block.Txs) {
			break
		}
		raw := block.Block.Txs[idx]
		txRow, err := c.store.InsertTransaction(chainID, block.Height, txHashHex(raw), memos[idx])
		if err != nil {
			return fmt.Errorf("insert tx for events: %w", err)
		}
		if err := c.processTxEvents(chainID, txRow, result.Events); err != nil {
			return err
		}
	}
	return nil
}

// processTransfer handles MsgTransfer, which initiates a packet flow but
// carries no assigned sequence or destination channel yet — tracked only
// as a count, the way the upstream collector does pending a dedicated
// transfers table.
func (c *Collector) processTransfer(chainID string, txRow *store.Transaction, transfer ibcmsg.Transfer) {
	slog.Debug("transfer", "chain_id", chainID, "sender", transfer.SenderAddr,
		"src_channel", transfer.SourceChannel, "tx_id", txRow.ID, "hash", txRow.Hash)
	c.metrics.ChainpulsePackets(chainID)
}

// processPacketMsg correlates a packet-lifecycle message against any prior
// row sharing its identity, sequence, and message type: the first
// observation wins as effected; every later one is classified uneffected
// and also counted on the frontrun counter, whether or not its signer
// differs from the effected signer.
func (c *Collector) processPacketMsg(chainID string, txRow *store.Transaction, typeURL string, msg ibcmsg.Msg, pkt *ibcmsg.Packet) error {
	info := ibcmsg.UniversalPacketInfoFromPacket(pkt)
	c.metrics.ChainpulsePackets(chainID)

	signer := msg.Signer()

	existing, err := c.store.FindPacket(info.SourceChannel, info.SourcePort, info.DestinationChannel, info.DestinationPort, int64(info.Sequence), typeURL)
	if err != nil {
		return fmt.Errorf("find packet: %w", err)
	}

	var effectedSigner *string
	var effectedTx *int64
	if existing != nil {
		effectedTxRow, err := c.store.GetTransaction(existing.TxID)
		if err != nil {
			return fmt.Errorf("load effecting tx: %w", err)
		}

		signerCopy, txIDCopy := existing.Signer, existing.TxID
		effectedSigner, effectedTx = &signerCopy, &txIDCopy

		c.metrics.IBCUneffectedPackets(chainID, info.SourceChannel, info.SourcePort, info.DestinationChannel, info.DestinationPort, signer, txRow.Memo)
		c.metrics.IBCFrontrunCounter(chainID, info.SourceChannel, info.SourcePort, info.DestinationChannel, info.DestinationPort, signer, existing.Signer, txRow.Memo, effectedTxRow.Memo)
	} else {
		c.metrics.IBCEffectedPackets(chainID, info.SourceChannel, info.SourcePort, info.DestinationChannel, info.DestinationPort, signer, txRow.Memo)
	}

	dataHash := info.DataHash
	np := store.NewPacket{
		TxID:           txRow.ID,
		Sequence:       int64(info.Sequence),
		SrcChannel:     info.SourceChannel,
		SrcPort:        info.SourcePort,
		DstChannel:     info.DestinationChannel,
		DstPort:        info.DestinationPort,
		MsgTypeURL:     typeURL,
		Signer:         signer,
		Effected:       existing == nil,
		EffectedSigner: effectedSigner,
		EffectedTx:     effectedTx,
		Sender:         info.Sender,
		Receiver:       info.Receiver,
		Denom:          info.Denom,
		Amount:         info.Amount,
		TransferMemo:   info.TransferMemo,
		IBCVersion:     info.IBCVersion,
		DataHash:       &dataHash,
	}
	if info.TimeoutTimestamp != nil {
		ts := int64(*info.TimeoutTimestamp)
		np.TimeoutTimestamp = &ts
	}
	if info.TimeoutHeight != nil {
		rn, rh := int64(info.TimeoutHeight.RevisionNumber), int64(info.TimeoutHeight.RevisionHeight)
		np.TimeoutHeightRevisionNumber, np.TimeoutHeightRevisionHeight = &rn, &rh
	}

	if err := c.store.InsertPacket(np); err != nil {
		return fmt.Errorf("insert packet: %w", err)
	}
	return nil
}

// processTxEvents persists every raw event on a transaction, then dispatches
// three of the four packet-lifecycle event types (send_packet,
// acknowledge_packet, timeout_packet) to their event-derived handlers.
// recv_packet is intentionally not handled further: it is redundant with
// the MsgRecvPacket row already inserted from the message pass.
func (c *Collector) processTxEvents(chainID string, txRow *store.Transaction, events []chainclient.TxEvent) error {
	for idx, ev := range events {
		eventID, err := c.store.InsertTxEvent(txRow.ID, ev.Type, idx)
		if err != nil {
			return fmt.Errorf("insert tx event: %w", err)
		}
		for attrIdx, attr := range ev.Attributes {
			if err := c.store.InsertEventAttribute(eventID, attr.Key, attr.Value, attrIdx); err != nil {
				return fmt.Errorf("insert event attribute: %w", err)
			}
		}

		attrs := make(map[string]string, len(ev.Attributes))
		for _, attr := range ev.Attributes {
			attrs[attr.Key] = attr.Value
		}

		switch ev.Type {
		case "send_packet":
			if err := c.processSendPacketEvent(chainID, txRow, attrs); err != nil {
				return err
			}
		case "acknowledge_packet":
			if err := c.processAckPacketEvent(txRow, attrs); err != nil {
				return err
			}
		case "timeout_packet":
			if err := c.processTimeoutPacketEvent(txRow, attrs); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Collector) processSendPacketEvent(chainID string, txRow *store.Transaction, attrs map[string]string) error {
	sequence, _ := strconv.ParseInt(attrs["packet_sequence"], 10, 64)
	srcChannel, srcPort := attrs["packet_src_channel"], attrs["packet_src_port"]
	dstChannel, dstPort := attrs["packet_dst_channel"], attrs["packet_dst_port"]

	var timeoutTimestamp *int64
	if ts, err := strconv.ParseInt(attrs["packet_timeout_timestamp"], 10, 64); err == nil && ts != 0 {
		timeoutTimestamp = &ts
	}

	var sender, receiver, amount, denom *string
	dataHex := attrs["packet_data"]
	if srcPort == "transfer" && dataHex != "" {
		if raw, err := hex.DecodeString(dataHex); err == nil {
			var ft ibcmsg.FungibleTokenPacketData
			if err := json.Unmarshal(raw, &ft); err == nil {
				sender, receiver, amount, denom = &ft.Sender, &ft.Receiver, &ft.Amount, &ft.Denom
			}
		}
	}

	slog.Debug("send_packet event", "chain_id", chainID, "sequence", sequence, "src_channel", srcChannel, "dst_channel", dstChannel)
	c.metrics.ChainpulsePackets(chainID)

	np := store.NewPacket{
		TxID:             txRow.ID,
		Sequence:         sequence,
		SrcChannel:       srcChannel,
		SrcPort:          srcPort,
		DstChannel:       dstChannel,
		DstPort:          dstPort,
		MsgTypeURL:       "send_packet",
		Signer:           "",
		Effected:         false,
		Sender:           sender,
		Receiver:         receiver,
		Denom:            denom,
		Amount:           amount,
		IBCVersion:       "v1",
		TimeoutTimestamp: timeoutTimestamp,
		DataHash:         dataHashPtr(dataHex),
	}
	if err := c.store.InsertPacket(np); err != nil {
		return fmt.Errorf("insert event-derived packet: %w", err)
	}
	return nil
}

func (c *Collector) processAckPacketEvent(txRow *store.Transaction, attrs map[string]string) error {
	sequence, _ := strconv.ParseInt(attrs["packet_sequence"], 10, 64)
	srcChannel, dstChannel := attrs["packet_src_channel"], attrs["packet_dst_channel"]

	if err := c.store.UpdateSendPacketEffected(srcChannel, dstChannel, sequence, txRow.ID, "send_packet"); err != nil {
		return fmt.Errorf("mark send_packet acknowledged: %w", err)
	}
	return nil
}

func (c *Collector) processTimeoutPacketEvent(txRow *store.Transaction, attrs map[string]string) error {
	sequence, _ := strconv.ParseInt(attrs["packet_sequence"], 10, 64)
	srcChannel, dstChannel := attrs["packet_src_channel"], attrs["packet_dst_channel"]

	if err := c.store.UpdateSendPacketEffected(srcChannel, dstChannel, sequence, txRow.ID, "timeout_packet"); err != nil {
		return fmt.Errorf("mark send_packet timed out: %w", err)
	}
	return nil
}

// dataHashPtr carries the event's raw packet_data hex straight into the
// data_hash column, matching the event-derived insert in
// original_source/src/collect.rs (process_send_packet_event), which binds
// the hex string itself rather than a digest of it.
func dataHashPtr(dataHex string) *string {
	if dataHex == "" {
		return nil
	}
	h := dataHex
	return &h
}

func txHashHex(raw []byte) string {
	sum := sha256.Sum256(raw)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
