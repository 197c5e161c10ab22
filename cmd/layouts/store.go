package main

import (
	"os"

	"github.com/aretw0/layouts/internal/cli"
	"github.com/spf13/cobra"
)

// encryptionKeyEnv is read when --encryption-key is not given.
const encryptionKeyEnv = "LAYOUTS_ENCRYPTION_KEY"

func addStoreFlags(cmd *cobra.Command, defaultKind string) {
	cmd.Flags().String("store", defaultKind, "Draft store (none, memory, file, redis)")
	cmd.Flags().String("drafts-dir", "", "Directory of the file store (default .layouts/drafts)")
	cmd.Flags().String("redis-addr", "localhost:6379", "Redis address")
	cmd.Flags().String("redis-password", "", "Redis password")
	cmd.Flags().Int("redis-db", 0, "Redis database")
	cmd.Flags().String("redis-prefix", "", "Key prefix for drafts and locks")
	cmd.Flags().Duration("ttl", 0, "Expiration of saved drafts (0 keeps them forever)")
	cmd.Flags().String("encryption-key", "", "Base64 AES-256 key sealing saved drafts (env "+encryptionKeyEnv+")")
	cmd.Flags().StringSlice("mask", nil, "Key patterns whose values are masked in saved drafts")
}

func storeOptionsFromFlags(cmd *cobra.Command) cli.StoreOptions {
	kind, _ := cmd.Flags().GetString("store")
	draftsDir, _ := cmd.Flags().GetString("drafts-dir")
	addr, _ := cmd.Flags().GetString("redis-addr")
	password, _ := cmd.Flags().GetString("redis-password")
	db, _ := cmd.Flags().GetInt("redis-db")
	prefix, _ := cmd.Flags().GetString("redis-prefix")
	ttl, _ := cmd.Flags().GetDuration("ttl")
	key, _ := cmd.Flags().GetString("encryption-key")
	mask, _ := cmd.Flags().GetStringSlice("mask")

	if key == "" {
		key = os.Getenv(encryptionKeyEnv)
	}
	return cli.StoreOptions{
		Kind:          kind,
		DraftsDir:     draftsDir,
		RedisAddr:     addr,
		RedisPassword: password,
		RedisDB:       db,
		Prefix:        prefix,
		TTL:           ttl,
		EncryptionKey: key,
		Mask:          mask,
	}
}
