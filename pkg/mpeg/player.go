// Package mpeg decodes video files with FFmpeg and uploads the frames to an
// SDL texture.
package mpeg

/*
#cgo pkg-config: libavformat libavcodec libavutil libswscale

#include <stdlib.h>
#include <string.h>
#include <libavformat/avformat.h>
#include <libavcodec/avcodec.h>
#include <libavutil/imgutils.h>
#include <libswscale/swscale.h>
#include <libavutil/log.h>

typedef struct {
    AVFormatContext   *formatCtx;
    AVCodecContext    *codecCtx;
    AVFrame           *frame;
    AVFrame           *frameRGBA;
    struct SwsContext *swsCtx;
    int                videoStream;
    uint8_t           *bufferRGBA;
    double             pts;
} Decoder;

// Hardware decoders tried before the software one, per codec.
static const char *hw_decoders(enum AVCodecID id, int idx) {
    static const char *hevc[] = {"hevc_rkmpp", "hevc_vaapi", "hevc_nvdec", "hevc_videotoolbox", NULL};
    static const char *h264[] = {"h264_rkmpp", "h264_vaapi", "h264_nvdec", "h264_cuvid", "h264_videotoolbox", NULL};
    static const char *vp9[]  = {"vp9_v4l2m2m", "vp9_vaapi", NULL};
    static const char *av1[]  = {"av1_v4l2m2m", "av1_vaapi", NULL};
    static const char *none[] = {NULL};
    const char **list = none;
    switch (id) {
        case AV_CODEC_ID_HEVC: list = hevc; break;
        case AV_CODEC_ID_H264: list = h264; break;
        case AV_CODEC_ID_VP9:  list = vp9;  break;
        case AV_CODEC_ID_AV1:  list = av1;  break;
        default: break;
    }
    int n = 0;
    while (list[n]) n++;
    return idx < n ? list[idx] : NULL;
}

static AVCodecContext *open_codec(const AVCodec *codec, AVCodecParameters *par) {
    if (!codec || codec->id != par->codec_id) {
        return NULL;
    }
    AVCodecContext *ctx = avcodec_alloc_context3(codec);
    if (!ctx) {
        return NULL;
    }
    avcodec_parameters_to_context(ctx, par);
    ctx->thread_type = FF_THREAD_FRAME;
    ctx->thread_count = 0;
    if (avcodec_open2(ctx, codec, NULL) < 0) {
        avcodec_free_context(&ctx);
        return NULL;
    }
    return ctx;
}

// init_decoder returns 0 on success, -1 if the file cannot be opened, -2
// without stream info, -3 without a usable video decoder.
int init_decoder(const char *filename, Decoder *d) {
    av_log_set_level(AV_LOG_ERROR);
    d->videoStream = -1;
    d->pts = 0;

    if (avformat_open_input(&d->formatCtx, filename, NULL, NULL) != 0) {
        return -1;
    }
    if (avformat_find_stream_info(d->formatCtx, NULL) < 0) {
        return -2;
    }

    int idx = av_find_best_stream(d->formatCtx, AVMEDIA_TYPE_VIDEO, -1, -1, NULL, 0);
    if (idx < 0) {
        return -3;
    }
    d->videoStream = idx;
    AVCodecParameters *par = d->formatCtx->streams[idx]->codecpar;

    const char *forced = getenv("VIDEO_DECODER");
    const char *swOnly = getenv("FORCE_SOFTWARE_DECODER");
    if (forced && forced[0] != '\0') {
        d->codecCtx = open_codec(avcodec_find_decoder_by_name(forced), par);
    }
    if (!d->codecCtx && !(swOnly && strcmp(swOnly, "1") == 0)) {
        const char *name;
        for (int i = 0; !d->codecCtx && (name = hw_decoders(par->codec_id, i)); i++) {
            d->codecCtx = open_codec(avcodec_find_decoder_by_name(name), par);
        }
    }
    if (!d->codecCtx) {
        d->codecCtx = open_codec(avcodec_find_decoder(par->codec_id), par);
    }
    if (!d->codecCtx) {
        return -3;
    }

    d->frame = av_frame_alloc();
    d->frameRGBA = av_frame_alloc();

    int width  = d->codecCtx->width;
    int height = d->codecCtx->height;
    int numBytes = av_image_get_buffer_size(AV_PIX_FMT_RGBA, width, height, 1);
    d->bufferRGBA = (uint8_t *)av_malloc(numBytes);
    av_image_fill_arrays(d->frameRGBA->data, d->frameRGBA->linesize, d->bufferRGBA, AV_PIX_FMT_RGBA, width, height, 1);

    d->swsCtx = sws_getContext(width, height, d->codecCtx->pix_fmt,
                               width, height, AV_PIX_FMT_RGBA,
                               SWS_BILINEAR, NULL, NULL, NULL);
    return 0;
}

static double frame_seconds(Decoder *d) {
    AVStream *st = d->formatCtx->streams[d->videoStream];
    int64_t ts = d->frame->best_effort_timestamp;
    if (ts == AV_NOPTS_VALUE) {
        return d->pts;
    }
    double start = st->start_time == AV_NOPTS_VALUE ? 0 : st->start_time * av_q2d(st->time_base);
    return ts * av_q2d(st->time_base) - start;
}

void convert_frame(Decoder *d) {
    sws_scale(d->swsCtx,
              (const uint8_t * const*)d->frame->data,
              d->frame->linesize,
              0,
              d->codecCtx->height,
              d->frameRGBA->data,
              d->frameRGBA->linesize);
}

// decode_frame decodes one frame. Returns 1 on success, 0 on EOF, negative
// on error. convert selects whether the RGBA buffer is refreshed.
int decode_frame(Decoder *d, int convert, uint8_t **rgba_data) {
    AVPacket packet;
    int ret;

    while (av_read_frame(d->formatCtx, &packet) >= 0) {
        if (packet.stream_index != d->videoStream) {
            av_packet_unref(&packet);
            continue;
        }
        ret = avcodec_send_packet(d->codecCtx, &packet);
        av_packet_unref(&packet);
        if (ret < 0) {
            return -1;
        }
        ret = avcodec_receive_frame(d->codecCtx, d->frame);
        if (ret == AVERROR(EAGAIN) || ret == AVERROR_EOF) {
            continue;
        } else if (ret < 0) {
            return -2;
        }

        d->pts = frame_seconds(d);
        if (convert) {
            convert_frame(d);
        }
        *rgba_data = d->frameRGBA->data[0];
        return 1;
    }
    return 0;
}

// seek_keyframe jumps to the last keyframe at or before seconds.
int seek_keyframe(Decoder *d, double seconds) {
    AVStream *st = d->formatCtx->streams[d->videoStream];
    double start = st->start_time == AV_NOPTS_VALUE ? 0 : st->start_time * av_q2d(st->time_base);
    int64_t ts = (int64_t)((seconds + start) / av_q2d(st->time_base));
    int ret = av_seek_frame(d->formatCtx, d->videoStream, ts, AVSEEK_FLAG_BACKWARD);
    if (ret < 0) {
        return ret;
    }
    avcodec_flush_buffers(d->codecCtx);
    return 0;
}

double decoder_duration(Decoder *d) {
    AVStream *st = d->formatCtx->streams[d->videoStream];
    if (st->duration != AV_NOPTS_VALUE && st->duration > 0) {
        return st->duration * av_q2d(st->time_base);
    }
    if (d->formatCtx->duration != AV_NOPTS_VALUE && d->formatCtx->duration > 0) {
        return (double)d->formatCtx->duration / AV_TIME_BASE;
    }
    return 0;
}

double decoder_fps(Decoder *d) {
    AVStream *st = d->formatCtx->streams[d->videoStream];
    AVRational r = av_guess_frame_rate(d->formatCtx, st, NULL);
    if (r.den == 0) {
        return 0;
    }
    return av_q2d(r);
}

void close_decoder(Decoder *d) {
    if (!d) return;
    if (d->swsCtx) sws_freeContext(d->swsCtx);
    av_free(d->bufferRGBA);
    av_frame_free(&d->frameRGBA);
    av_frame_free(&d->frame);
    avcodec_free_context(&d->codecCtx);
    if (d->formatCtx) {
        avformat_close_input(&d->formatCtx);
    }
}
*/
import "C"

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
	"unsafe"

	"github.com/veandco/go-sdl2/sdl"

	"vj-frame/pkg/logging"
)

// seekDecodeLimit bounds how far past a keyframe Seek decodes towards its
// target. Long GOPs land short of the target and the caller retries.
const seekDecodeLimit = 2 * time.Second

var ErrNotReady = errors.New("mpeg: renderer not set")

type videoDecoder struct {
	cdec   C.Decoder
	width  int
	height int
	fps    float64
}

func newVideoDecoder(path string) (*videoDecoder, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	dec := &videoDecoder{}
	if ret := C.init_decoder(cPath, &dec.cdec); ret != 0 {
		C.close_decoder(&dec.cdec)
		return nil, fmt.Errorf("open %s: init_decoder failed (code=%d)", path, int(ret))
	}

	dec.width = int(dec.cdec.codecCtx.width)
	dec.height = int(dec.cdec.codecCtx.height)
	dec.fps = float64(C.decoder_fps(&dec.cdec))
	if dec.fps <= 0 {
		dec.fps = 30
	}
	return dec, nil
}

// next decodes one frame. The returned slice aliases the C buffer and is only
// valid until the next call.
func (d *videoDecoder) next(convert bool) ([]byte, error) {
	var data *C.uint8_t
	conv := C.int(0)
	if convert {
		conv = 1
	}
	ret := C.decode_frame(&d.cdec, conv, &data)
	switch {
	case ret == 0:
		return nil, io.EOF
	case ret < 0:
		return nil, fmt.Errorf("decode error (code=%d)", int(ret))
	}
	if !convert {
		return nil, nil
	}
	return d.rgba(data), nil
}

func (d *videoDecoder) convert() []byte {
	C.convert_frame(&d.cdec)
	return d.rgba(d.cdec.frameRGBA.data[0])
}

func (d *videoDecoder) rgba(data *C.uint8_t) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(data)), d.width*d.height*4)
}

func (d *videoDecoder) position() float64 { return float64(d.cdec.pts) }

func (d *videoDecoder) duration() float64 { return float64(C.decoder_duration(&d.cdec)) }

func (d *videoDecoder) seekKeyframe(seconds float64) error {
	if ret := C.seek_keyframe(&d.cdec, C.double(seconds)); ret < 0 {
		return fmt.Errorf("av_seek_frame failed (code=%d)", int(ret))
	}
	return nil
}

func (d *videoDecoder) close() {
	C.close_decoder(&d.cdec)
}

// Player plays one video file. It starts paused on its first frame and
// stops at the end of the stream.
type Player struct {
	dec  *videoDecoder
	path string

	renderer *sdl.Renderer
	texture  *sdl.Texture

	playbackRate float64
	playing      bool
	ended        bool

	acc      float64
	lastTime time.Time

	m         sync.Mutex
	closeOnce sync.Once
}

// Open prepares a player for the file at path.
func Open(path string) (*Player, error) {
	dec, err := newVideoDecoder(path)
	if err != nil {
		return nil, err
	}
	return &Player{dec: dec, path: path, playbackRate: 1.0}, nil
}

// SetRenderer creates the texture and shows the first frame.
func (p *Player) SetRenderer(renderer *sdl.Renderer) error {
	p.m.Lock()
	defer p.m.Unlock()

	p.renderer = renderer
	var err error
	p.texture, err = renderer.CreateTexture(uint32(sdl.PIXELFORMAT_RGBA32), sdl.TEXTUREACCESS_STREAMING, int32(p.dec.width), int32(p.dec.height))
	if err != nil {
		return fmt.Errorf("failed to create texture: %w", err)
	}

	frame, err := p.dec.next(true)
	if err != nil {
		return err
	}
	return p.updateTexture(frame)
}

func (p *Player) updateTexture(frame []byte) error {
	if p.texture == nil {
		return ErrNotReady
	}
	pixels, _, err := p.texture.Lock(nil)
	if err != nil {
		return fmt.Errorf("failed to lock texture: %w", err)
	}
	copy(pixels, frame)
	p.texture.Unlock()
	return nil
}

// Duration is the stream length in seconds, 0 when the container does not
// say.
func (p *Player) Duration() float64 {
	p.m.Lock()
	defer p.m.Unlock()
	return p.dec.duration()
}

// Position is the timestamp of the displayed frame in seconds.
func (p *Player) Position() float64 {
	p.m.Lock()
	defer p.m.Unlock()
	return p.dec.position()
}

// Seek jumps to the keyframe before seconds and decodes forward towards it,
// giving up after seekDecodeLimit worth of frames. It returns the position
// actually reached, which may be short of the target.
func (p *Player) Seek(seconds float64) (float64, error) {
	p.m.Lock()
	defer p.m.Unlock()

	if p.texture == nil {
		return 0, ErrNotReady
	}
	if err := p.dec.seekKeyframe(seconds); err != nil {
		return p.dec.position(), err
	}
	p.ended = false

	limit := int(seekDecodeLimit.Seconds()*p.dec.fps) + 1
	frameDur := 1 / p.dec.fps
	var err error
	for i := 0; i < limit; i++ {
		if _, err = p.dec.next(false); err != nil {
			break
		}
		if p.dec.position()+frameDur/2 >= seconds {
			break
		}
	}
	if errors.Is(err, io.EOF) {
		p.ended = true
		return p.dec.position(), nil
	}
	if err != nil {
		return p.dec.position(), err
	}

	// Only the frame that ends up on screen is converted.
	if err := p.updateTexture(p.dec.convert()); err != nil {
		return p.dec.position(), err
	}

	p.acc = 0
	p.lastTime = time.Now()
	return p.dec.position(), nil
}

// Play starts or resumes frame advancement.
func (p *Player) Play() {
	p.m.Lock()
	p.playing = true
	p.lastTime = time.Now()
	p.acc = 0
	p.m.Unlock()
}

func (p *Player) Pause() {
	p.m.Lock()
	p.playing = false
	p.m.Unlock()
}

// SetPlaybackRate scales how fast frames advance. Non-positive rates are
// ignored.
func (p *Player) SetPlaybackRate(rate float64) {
	if rate <= 0 {
		return
	}
	p.m.Lock()
	p.playbackRate = rate
	p.m.Unlock()
}

// Update advances as many frames as wall-clock time allows. It returns
// io.EOF once the stream is exhausted.
func (p *Player) Update() error {
	p.m.Lock()
	defer p.m.Unlock()

	if p.ended {
		return io.EOF
	}
	if !p.playing {
		return nil
	}

	now := time.Now()
	dt := now.Sub(p.lastTime).Seconds()
	p.lastTime = now
	p.acc += dt * p.playbackRate * p.dec.fps

	steps := int(p.acc)
	if steps == 0 {
		return nil
	}
	p.acc -= float64(steps)

	// Skip conversion for frames that are never shown.
	var frame []byte
	var err error
	for i := 0; i < steps; i++ {
		frame, err = p.dec.next(i == steps-1)
		if err != nil {
			break
		}
	}
	if errors.Is(err, io.EOF) {
		p.ended = true
		logging.Component("mpeg").Debug().Str("path", p.path).Float64("position", p.dec.position()).Msg("End of stream")
		return io.EOF
	}
	if err != nil {
		return err
	}
	return p.updateTexture(frame)
}

// Draw renders the current frame letterboxed into the screen.
func (p *Player) Draw(renderer *sdl.Renderer, screenWidth, screenHeight int32) error {
	p.m.Lock()
	texture := p.texture
	p.m.Unlock()

	if texture == nil {
		return nil
	}
	dst := Letterbox(int32(p.dec.width), int32(p.dec.height), screenWidth, screenHeight)
	return renderer.Copy(texture, nil, &dst)
}

// Letterbox fits a w×h picture into the screen keeping its aspect ratio.
func Letterbox(w, h, screenWidth, screenHeight int32) sdl.Rect {
	if w <= 0 || h <= 0 {
		return sdl.Rect{W: screenWidth, H: screenHeight}
	}
	scale := min(float64(screenWidth)/float64(w), float64(screenHeight)/float64(h))
	rw := int32(float64(w) * scale)
	rh := int32(float64(h) * scale)
	return sdl.Rect{
		X: (screenWidth - rw) / 2,
		Y: (screenHeight - rh) / 2,
		W: rw,
		H: rh,
	}
}

// Close releases the texture and the decoder.
func (p *Player) Close() error {
	p.closeOnce.Do(func() {
		p.m.Lock()
		defer p.m.Unlock()
		if p.texture != nil {
			p.texture.Destroy()
			p.texture = nil
		}
		if p.dec != nil {
			p.dec.close()
		}
	})
	return nil
}

// FPS returns the stream's frame rate estimate.
func (p *Player) FPS() float64 {
	p.m.Lock()
	defer p.m.Unlock()
	return p.dec.fps
}
