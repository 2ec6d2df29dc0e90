package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Auction contract interface. itemName/itemDescription are optional
// accessors only some auction variants implement; variants without them
// revert, which the resilient call layer absorbs.
const AuctionABIJSON = `[
  {"type":"function","name":"highestBid","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"highestBidder","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"auctionEndTime","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"beneficiary","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"ended","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"auctionType","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"itemName","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"itemDescription","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"bid","stateMutability":"payable","inputs":[],"outputs":[]},
  {"type":"function","name":"withdraw","stateMutability":"nonpayable","inputs":[],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"endAuction","stateMutability":"nonpayable","inputs":[],"outputs":[]},
  {"type":"event","name":"BidPlaced","anonymous":false,"inputs":[{"name":"bidder","type":"address","indexed":false},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"Withdrawn","anonymous":false,"inputs":[{"name":"bidder","type":"address","indexed":false},{"name":"amount","type":"uint256","indexed":false}]},
  {"type":"event","name":"AuctionEnded","anonymous":false,"inputs":[{"name":"winner","type":"address","indexed":false},{"name":"amount","type":"uint256","indexed":false}]}
]`

// Registry contract interface: an on-chain index of deployed auctions.
const RegistryABIJSON = `[
  {"type":"function","name":"getAuctionCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getAuction","stateMutability":"view","inputs":[{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
]`

func ParseAuctionABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(AuctionABIJSON))
}

func ParseRegistryABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(RegistryABIJSON))
}
