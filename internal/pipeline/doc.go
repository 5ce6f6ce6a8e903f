// Package pipeline runs the phases of a container build pipeline.
//
// A run moves through start, build, commit, tag, push, stop and verify, in
// that order. Each phase may run in its own process; the phases share
// nothing but the [state.RunContext], in which earlier phases register the
// containers and images they produced under the ids the pipeline file gave
// them.
//
// Phases continue through failures. A container that does not start, an
// image that does not build, or a tag that cannot be applied is recorded as
// a [state.PluginError] and the phase moves on to the next item. Only the
// verify phase turns recorded failures into a failed run, returning a
// [*VerificationError] that lists them in the order they occurred. A few
// conditions end the run at once, such as an image spec without a
// Dockerfile, which is detected before anything is built.
//
// Tag specs resolve their source image through the run context: an id that
// a build or commit registered maps to the image it produced, and any other
// id is used as an image reference directly. A registry on the tag spec wins
// over the one inherited from the build.
//
// Example usage:
//
//	r := pipeline.New(p, pl, rc, pipeline.WithRecorder(rec))
//	if err := r.Run(ctx, pipeline.Phases...); err != nil {
//	    var verr *pipeline.VerificationError
//	    if errors.As(err, &verr) {
//	        for _, msg := range verr.Messages() {
//	            fmt.Println(msg)
//	        }
//	    }
//	    return err
//	}
package pipeline
