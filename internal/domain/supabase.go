package domain

import "github.com/supabase-community/supabase-go"

// SupabaseClient is the subset of Supabase used for document acquisition.
type SupabaseClient interface {
	Initialize() error
	DB() *supabase.Client
	Download(bucket, path string) ([]byte, error)
}
