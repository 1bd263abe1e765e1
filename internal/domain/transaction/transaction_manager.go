package transaction

import (
	"context"
)

// TransactionManager トランザクション管理インターフェース
type TransactionManager interface {
	// WithTransaction トランザクション内で関数を実行
	// fnに渡されるctxはトランザクションを保持し、リポジトリはそれを使って実行する。
	// 既にトランザクション内であれば外側のトランザクションに参加する。
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
