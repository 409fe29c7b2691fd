package web

// indexPage is the single upload form. The page is deliberately static: the
// API is the real surface, this is a convenience for manual use.
const indexPage = `<!DOCTYPE html>
<html lang="ja">
<head>
<meta charset="utf-8">
<title>Podscript</title>
<style>
  body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; }
  label { display: block; margin-top: 1rem; }
  input, select, button { margin-top: 0.25rem; }
  pre { background: #f4f4f4; padding: 1rem; white-space: pre-wrap; }
</style>
</head>
<body>
<h1>Podscript</h1>
<p>Upload an audio file (mp3 / wav / m4a) or a manuscript (.txt) and generate episode titles, a description and a blog post.</p>
<form id="form">
  <label>Show name <input type="text" name="show" required></label>
  <label>File <input type="file" name="file" accept=".mp3,.wav,.m4a,.txt" required></label>
  <label>Language
    <select name="language">
      <option value="">auto</option>
      <option value="ja">日本語</option>
      <option value="en">English</option>
    </select>
  </label>
  <label>Artifacts <input type="text" name="types" placeholder="titles,description,blog"></label>
  <button type="submit">Generate</button>
</form>
<pre id="result"></pre>
<script>
document.getElementById('form').addEventListener('submit', async (e) => {
  e.preventDefault();
  const result = document.getElementById('result');
  result.textContent = 'processing...';
  const resp = await fetch('/api/process', { method: 'POST', body: new FormData(e.target) });
  result.textContent = JSON.stringify(await resp.json(), null, 2);
});
</script>
</body>
</html>
`
