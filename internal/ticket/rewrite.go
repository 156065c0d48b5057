package ticket

import "path/filepath"

// StagedTemplateDir is the relative directory the template archive unpacks
// into inside a job's flat working directory.
const StagedTemplateDir = "templates/"

// Rewrite returns a copy of args with every local filesystem path replaced
// by the name the file will have in the remote staging directory:
//
//   - template_path becomes the fixed relative staging directory,
//   - limit_threshold, toydata_filename and output_filename are reduced to
//     their base names,
//   - statistical_model_config is replaced by the path-corrected model
//     config written into the generated directory,
//   - everything else passes through unchanged.
//
// The input is never mutated.
func Rewrite(args Args, modelConfigName string) Args {
	out := args
	out.ModelArgs.raw = args.ModelArgs.cloneRaw()

	out.ModelArgs.TemplatePath = StagedTemplateDir
	if args.ModelArgs.LimitThreshold != "" {
		out.ModelArgs.LimitThreshold = filepath.Base(args.ModelArgs.LimitThreshold)
	}
	out.ToydataFilename = filepath.Base(args.ToydataFilename)
	out.OutputFilename = filepath.Base(args.OutputFilename)
	out.StatisticalModelConfig = modelConfigName

	return out
}
