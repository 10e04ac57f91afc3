package trainer

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/josephgoksu/causalfuse/internal/logger"
	"github.com/josephgoksu/causalfuse/types"
	"github.com/openfluke/loom/nn"
)

// MLP is a one-hidden-layer network trained with SGD. Gradients are applied
// per sample; L2 decay shrinks the layer kernels once per mini-batch.
type MLP struct{}

// Train implements Trainer.
func (MLP) Train(ctx context.Context, rc *logger.RunContext, in Input) (Result, error) {
	t := in.Tensors
	opts := in.Options
	if t == nil || len(t.Features) == 0 {
		return Result{}, trainingError(errors.New("no input features"))
	}
	if opts.Alpha <= 0 || opts.Epochs <= 0 {
		return Result{}, trainingError(fmt.Errorf("invalid options: alpha %d, epochs %d", opts.Alpha, opts.Epochs))
	}
	batchSize := max(opts.BatchSize, 1)

	net := newNetwork(len(t.Features), opts.Alpha, t.NumClasses, rc.RNG)
	lr := float32(opts.LR)
	decay := float32(1 - opts.LR*opts.L2)

	n := t.Train.Len()
	for epoch := 1; epoch <= opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		order := rc.RNG.Perm(n)
		loss := 0.0
		for start := 0; start < n; start += batchSize {
			end := min(start+batchSize, n)
			for _, i := range order[start:end] {
				output, _ := net.ForwardCPU(t.Train.X[i])
				grad := make([]float32, len(output))
				for k, o := range output {
					target := float32(0)
					if k == t.Train.Y[i] {
						target = 1
					}
					grad[k] = o - target
					loss += float64(grad[k] * grad[k])
				}
				net.BackwardCPU(grad)
				net.ApplyGradients(lr)
			}
			if opts.L2 > 0 {
				shrinkKernels(net, decay)
			}
		}
		loss /= float64(n)
		if math.IsNaN(loss) || math.IsInf(loss, 0) {
			return Result{}, trainingError(fmt.Errorf("loss diverged at epoch %d", epoch))
		}
		if opts.LogFreq > 0 && epoch%opts.LogFreq == 0 {
			val := Evaluate(in.Score, predict(net, t.Val.X), t.Val)
			rc.Log.Info("epoch", "epoch", epoch, "loss", fmt.Sprintf("%.4f", loss), "val", fmt.Sprintf("%.3f", val))
		}
	}

	return Result{
		Validation: Evaluate(in.Score, predict(net, t.Val.X), t.Val),
		Test:       Evaluate(in.Score, predict(net, t.Test.X), t.Test),
	}, nil
}

func newNetwork(in, hidden, classes int, rng *rand.Rand) *nn.Network {
	net := nn.NewNetwork(in, 1, 1, 2)
	net.BatchSize = 1

	h := nn.InitDenseLayer(in, hidden, nn.ActivationLeakyReLU)
	initKernel(h.Kernel, in, hidden, rng)
	out := nn.InitDenseLayer(hidden, classes, nn.ActivationSigmoid)
	initKernel(out.Kernel, hidden, classes, rng)

	net.SetLayer(0, 0, 0, h)
	net.SetLayer(0, 0, 1, out)
	return net
}

// initKernel fills a kernel with Xavier-uniform values drawn from rng.
func initKernel(kernel []float32, fanIn, fanOut int, rng *rand.Rand) {
	limit := float32(math.Sqrt(6 / float64(fanIn+fanOut)))
	for i := range kernel {
		kernel[i] = (rng.Float32()*2 - 1) * limit
	}
}

func shrinkKernels(net *nn.Network, factor float32) {
	for i := 0; i < 2; i++ {
		cfg := net.GetLayer(0, 0, i)
		if cfg == nil {
			continue
		}
		for k := range cfg.Kernel {
			cfg.Kernel[k] *= factor
		}
	}
}

func predict(net *nn.Network, xs [][]float32) []int {
	out := make([]int, len(xs))
	for i, x := range xs {
		scores, _ := net.ForwardCPU(x)
		best := 0
		for k, s := range scores {
			if s > scores[best] {
				best = k
			}
		}
		out[i] = best
	}
	return out
}

func trainingError(err error) error {
	return types.NewStageError(types.ErrTraining, "train", "", err)
}

var _ Trainer = MLP{}

