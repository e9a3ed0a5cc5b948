package recorder

import (
	"encoding/csv"
	"fmt"
	"os"
)

// initializeCSV 创建文件并写入表头，已存在的文件会被覆盖
func initializeCSV(filename string, header []string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create %s: %w", filename, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header to %s: %w", filename, err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", filename, err)
	}
	return file.Close()
}

// appendToCSV 将多行数据追加到已初始化的文件
func appendToCSV(filename string, data [][]string) error {
	if len(data) == 0 {
		return nil
	}

	file, err := os.OpenFile(filename, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(data); err != nil {
		return fmt.Errorf("write data to %s: %w", filename, err)
	}
	return file.Close()
}

// fileExists 检查文件是否存在
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}
