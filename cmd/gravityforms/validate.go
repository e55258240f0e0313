package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-gravityforms/pkg/descriptor"
	"github.com/goliatone/go-gravityforms/pkg/widgets"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [descriptor...]",
		Short: "Check descriptors against the schema and report unsupported fields",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{""}
			}
			registry := widgets.NewRegistry()
			out := cmd.OutOrStdout()

			var errs []error
			for _, arg := range args {
				src, err := a.source(arg)
				if err != nil {
					errs = append(errs, err)
					continue
				}
				forms, err := descriptor.Load(cmd.Context(), a.loader(), src)
				if err != nil {
					fmt.Fprintf(out, "FAIL %s: %v\n", src.Location(), err)
					errs = append(errs, err)
					continue
				}

				ids := make([]string, 0, len(forms))
				for _, form := range forms {
					ids = append(ids, strconv.Itoa(form.ID))
					for _, field := range form.Fields {
						if _, ok := registry.Resolve(field); !ok {
							fmt.Fprintf(out, "WARN %s: form %d field %d: unsupported type %q is skipped\n",
								src.Location(), form.ID, field.ID, field.Type)
						}
					}
				}
				fmt.Fprintf(out, "OK   %s: %d form(s) [%s]\n", src.Location(), len(forms), strings.Join(ids, ", "))
			}
			return errors.Join(errs...)
		},
	}
}
