package collectcore

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Keccak topic of Transfer(address,address,uint256). Shared by ERC-20 and
// ERC-721; the tokenId variant only differs in having topic 3 indexed.
var transferTopic = crypto.Keccak256Hash([]byte("Transfer(address,address,uint256)"))

// 4-byte selectors for the view/transfer surface we consume.
var (
	selBalanceOf           = common.FromHex("0x70a08231") // balanceOf(address)
	selDecimals            = common.FromHex("0x313ce567") // decimals()
	selSymbol              = common.FromHex("0x95d89b41") // symbol()
	selName                = common.FromHex("0x06fdde03") // name()
	selTransfer            = common.FromHex("0xa9059cbb") // transfer(address,uint256)
	selTransferFrom        = common.FromHex("0x23b872dd") // transferFrom(address,address,uint256)
	selTokenOfOwnerByIndex = common.FromHex("0x2f745c59") // tokenOfOwnerByIndex(address,uint256)
)

func balanceOfCalldata(owner common.Address) []byte {
	return append(append([]byte{}, selBalanceOf...), common.LeftPadBytes(owner.Bytes(), 32)...)
}

// Encode ERC-20 transfer calldata.
func transferCalldata(to common.Address, amount *big.Int) []byte {
	out := append([]byte{}, selTransfer...)
	out = append(out, common.LeftPadBytes(to.Bytes(), 32)...)
	return append(out, common.LeftPadBytes(amount.Bytes(), 32)...)
}

func transferFromCalldata(from, to common.Address, tokenID *big.Int) []byte {
	out := append([]byte{}, selTransferFrom...)
	out = append(out, common.LeftPadBytes(from.Bytes(), 32)...)
	out = append(out, common.LeftPadBytes(to.Bytes(), 32)...)
	return append(out, common.LeftPadBytes(tokenID.Bytes(), 32)...)
}

func tokenOfOwnerByIndexCalldata(owner common.Address, index *big.Int) []byte {
	out := append([]byte{}, selTokenOfOwnerByIndex...)
	out = append(out, common.LeftPadBytes(owner.Bytes(), 32)...)
	return append(out, common.LeftPadBytes(index.Bytes(), 32)...)
}

func decodeUint(out []byte) *big.Int {
	if len(out) == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(out)
}

// decodeString handles both dynamic string and bytes32 returns; both shapes
// occur in the wild for symbol()/name().
func decodeString(out []byte) string {
	if len(out) == 0 {
		return ""
	}
	if len(out) >= 64 {
		l := new(big.Int).SetBytes(out[32:64]).Int64()
		if l > 0 && 64+int(l) <= len(out) {
			return string(out[64 : 64+int(l)])
		}
	}
	return strings.TrimRight(string(out), "\x00")
}

// accountTopic pads an address into an indexed topic slot.
func accountTopic(addr common.Address) common.Hash {
	return common.BytesToHash(common.LeftPadBytes(addr.Bytes(), 32))
}
