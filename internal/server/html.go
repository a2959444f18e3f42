package server

// indexHTML is the viewer shell. It streams frames from /api/events into
// the page and posts pointer events in map coordinates to /api/pointer.
const indexHTML = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>meshmap</title>
<style>
  html, body { margin: 0; height: 100%; background: #f5f7fa; font: 13px sans-serif; }
  #map { width: 100vw; height: calc(100vh - 28px); touch-action: none; }
  #map svg { width: 100%; height: 100%; }
  #status { height: 28px; line-height: 28px; padding: 0 12px; color: #52606d; }
  #status a { color: #2680c2; margin-left: 12px; }
</style>
</head>
<body>
<div id="map"></div>
<div id="status">connecting…
</div>
<script>
(() => {
  const mapEl = document.getElementById("map");
  const statusEl = document.getElementById("status");
  let session = null;
  let svg = null;

  async function connect() {
    const res = await fetch("/api/session", { method: "POST" });
    session = (await res.json()).id;
  }

  function toMap(e) {
    if (!svg) return { x: 0, y: 0 };
    const pt = svg.createSVGPoint();
    pt.x = e.clientX;
    pt.y = e.clientY;
    const m = pt.matrixTransform(svg.getScreenCTM().inverse());
    return { x: m.x, y: m.y };
  }

  function send(type, e, withNode) {
    if (!session) return;
    const p = toMap(e);
    const body = { session, type, pointerId: e.pointerId || 1, x: p.x, y: p.y };
    if (withNode) {
      const el = e.target.closest && e.target.closest(".node");
      if (el) body.node = el.dataset.key;
    }
    fetch("/api/pointer", {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: JSON.stringify(body),
    }).then(r => { if (r.status === 404) connect(); });
  }

  let moveQueued = null;
  function queueMove(e) {
    if (moveQueued) { moveQueued = e; return; }
    moveQueued = e;
    requestAnimationFrame(() => { send("pointermove", moveQueued, false); moveQueued = null; });
  }

  mapEl.addEventListener("pointerdown", e => { mapEl.setPointerCapture(e.pointerId); send("pointerdown", e, true); });
  mapEl.addEventListener("pointermove", queueMove);
  mapEl.addEventListener("pointerup", e => send("pointerup", e, false));
  mapEl.addEventListener("pointercancel", e => send("pointercancel", e, false));
  mapEl.addEventListener("pointerleave", e => send("pointerout", e, false));

  const events = new EventSource("/api/events");
  events.addEventListener("frame", msg => {
    const f = JSON.parse(msg.data);
    mapEl.innerHTML = f.svg;
    svg = mapEl.querySelector("svg");
    statusEl.innerHTML = f.nodes.length + " devices · tick " + f.tick +
      " · alpha " + f.alpha.toFixed(3) + (f.dragging ? " · dragging " + f.dragging : "") +
      '<a href="/export.svg">SVG</a><a href="/export.png">PNG</a><a href="/export.json">JSON</a>';
  });
  events.onerror = () => { statusEl.textContent = "reconnecting…"; };

  window.addEventListener("beforeunload", () => {
    if (session) fetch("/api/session/" + session, { method: "DELETE", keepalive: true });
  });

  connect();
})();
</script>
</body>
</html>
`
