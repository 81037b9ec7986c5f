package main

import (
	"log"

	"github.com/shouni/go-job-digest/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("実行に失敗しました: %v", err)
	}
}
