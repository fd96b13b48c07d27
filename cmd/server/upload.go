package main

import (
	"fmt"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/todmy/doc-checker/internal/registry"
)

var (
	appFs       = afero.NewOsFs()
	uploadStore string
)

var uploadCmd = &cobra.Command{
	Use:   "upload <files...>",
	Short: "Upload files into a vector store",
	Long: "Uploads files and attaches them to the vector store of --store, or to a new vector store when --store is empty. " +
		"Print the resulting vector store ID and add it under collections in config.yaml to analyse it later.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := readFiles(appFs, args, cfg.Upload.MaxBytes)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		summary, err := a.uploader.Upload(cmd.Context(), uploadStore, files)
		if err != nil {
			return err
		}

		c, err := a.store.Get(cmd.Context(), summary.CollectionID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, summary.Message)
		for _, d := range summary.Documents {
			fmt.Fprintf(out, "  %-10s %s\n", d.Status, d.Name)
		}
		fmt.Fprintf(out, "vector store: %s\n", c.VectorStoreID)
		return nil
	},
}

// readFiles loads every path, rejecting files above maxBytes
func readFiles(fs afero.Fs, paths []string, maxBytes int64) ([]registry.File, error) {
	files := make([]registry.File, 0, len(paths))
	for _, p := range paths {
		info, err := fs.Stat(p)
		if err != nil {
			return nil, eris.Wrapf(err, "upload: stat %s", p)
		}
		if info.IsDir() {
			return nil, eris.Errorf("upload: %s is a directory", p)
		}
		if maxBytes > 0 && info.Size() > maxBytes {
			return nil, eris.Errorf("upload: %s exceeds %d bytes", p, maxBytes)
		}

		content, err := afero.ReadFile(fs, p)
		if err != nil {
			return nil, eris.Wrapf(err, "upload: read %s", p)
		}
		files = append(files, registry.File{Name: filepath.Base(p), Content: content})
	}
	return files, nil
}

func init() {
	uploadCmd.Flags().StringVar(&uploadStore, "store", "", "target collection ID (default: new collection)")
	rootCmd.AddCommand(uploadCmd)
}
