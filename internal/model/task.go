// Package model はドメインモデルを定義する。
package model

import "time"

// Task はユーザーが所有するタスクを表す。
// 全ての読み書きはUserID（所有者）でスコープされ、
// 他のユーザーからは参照も変更もできない。
type Task struct {
	ID          string
	UserID      string
	Title       string
	Content     string
	IsCompleted bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// タスクの状態遷移は Pending --完了--> Completed の一方向のみ。
// 完了済みタスクをPendingに戻す遷移は存在しない。
// 編集は完了フラグを変更せず、削除はどちらの状態からも可能。
