// Copyright (c) 2025 The Kelda developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

// badTxError is the error type for a tx that can never be accepted:
// undecodable, oversized, or carrying a signature no key could have produced.
type badTxError struct {
	msg string
}

func (e badTxError) Error() string {
	return "bad tx: " + e.msg
}

// knownTxError is the error type for a tx whose hash was already seen,
// either still pending in the pool or already carrying a receipt.
type knownTxError struct {
	msg string
}

func (e knownTxError) Error() string {
	return "known tx: " + e.msg
}

// txRejectedError is the error type for a well-formed tx the pool refuses
// under its current policy (full pool, account quota).
type txRejectedError struct {
	msg string
}

func (e txRejectedError) Error() string {
	return "tx rejected: " + e.msg
}

var (
	errNotFound = txRejectedError{"not found"}
	errClaimed  = txRejectedError{"already claimed"}
)

// IsNotFound returns whether the error indicates the tx is not in the pool.
func IsNotFound(err error) bool {
	return err == errNotFound
}

// IsClaimed returns whether the error indicates the tx was already claimed
// by the pipeline.
func IsClaimed(err error) bool {
	return err == errClaimed
}

// IsBadTx returns whether the error indicates a malformed tx.
func IsBadTx(err error) bool {
	_, ok := err.(badTxError)
	return ok
}

// IsKnownTx returns whether the error indicates a duplicate submission.
func IsKnownTx(err error) bool {
	_, ok := err.(knownTxError)
	return ok
}

// IsTxRejected returns whether the error indicates the tx was rejected by
// pool policy.
func IsTxRejected(err error) bool {
	_, ok := err.(txRejectedError)
	return ok
}
