package redis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"auction-explorer/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestParseEventData(t *testing.T) {
	subscriber := &EventSubscriberImpl{log: nopLogger{}}

	event, err := subscriber.parseEventData(
		"0x0000000000000000000000000000000000005678:bid_placed:0x0000000000000000000000000000000000000002:1500000000000000000:1767225600")
	require.NoError(t, err)

	require.Equal(t, "0x0000000000000000000000000000000000005678", event.Auction)
	require.Equal(t, domain.EventBidPlaced, event.Type)
	require.Equal(t, "0x0000000000000000000000000000000000000002", event.Actor)
	require.Equal(t, "1500000000000000000", event.AmountWei)
	require.Equal(t, time.Unix(1767225600, 0), event.Timestamp)
}

func TestParseEventDataRejectsMalformedPayloads(t *testing.T) {
	subscriber := &EventSubscriberImpl{log: nopLogger{}}

	_, err := subscriber.parseEventData("not-an-event")
	require.Error(t, err)

	_, err = subscriber.parseEventData("0xabc:bid_placed:0xdef:100")
	require.Error(t, err)

	_, err = subscriber.parseEventData("0xabc:bid_placed:0xdef:100:not-a-timestamp")
	require.Error(t, err)
}
