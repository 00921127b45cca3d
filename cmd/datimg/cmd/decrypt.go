package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wxlab/datimg/internal/imgcrypt"
)

func init() {
	decryptCmd := &cobra.Command{
		Use:   "decrypt <input.dat>",
		Short: "Decrypt a single encrypted image file",
		Long: `Decrypt one .dat blob to an image file without touching any
configured account. The format is detected from the blob itself; the image
key is only needed for hybrid-v2 blobs.`,
		Args: cobra.ExactArgs(1),
		RunE: runDecrypt,
	}

	decryptCmd.Flags().StringP("out", "o", "", "output file (default: input name with sniffed extension)")
	decryptCmd.Flags().String("xor", "0x37", "1-byte hex XOR key")
	decryptCmd.Flags().String("key", "", "image key (16+ characters, hybrid-v2 only)")

	rootCmd.AddCommand(decryptCmd)
}

func runDecrypt(cmd *cobra.Command, args []string) error {
	input := args[0]

	xorStr, _ := cmd.Flags().GetString("xor")
	xorKey, err := imgcrypt.ParseXORKey(xorStr)
	if err != nil {
		return fmt.Errorf("parsing xor key: %w", err)
	}

	var aesKey []byte
	if keyStr, _ := cmd.Flags().GetString("key"); keyStr != "" {
		aesKey, err = imgcrypt.ParseAESKey(keyStr)
		if err != nil {
			return fmt.Errorf("parsing image key: %w", err)
		}
	}

	blob, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading %s: %w", input, err)
	}

	format := imgcrypt.DetectFormat(blob)
	plain, err := imgcrypt.Decrypt(blob, aesKey, xorKey)
	if err != nil {
		return fmt.Errorf("decrypting %s: %w", input, err)
	}

	ext := imgcrypt.SniffImageExt(plain)
	if ext == "" {
		ext = "jpg"
	}

	output, _ := cmd.Flags().GetString("out")
	if output == "" {
		base := input[:len(input)-len(filepath.Ext(input))]
		output = base + "." + ext
	}

	if err := os.WriteFile(output, plain, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Printf("decrypted %s (%s, %s) -> %s (%d bytes)\n", input, format, ext, output, len(plain))
	return nil
}
